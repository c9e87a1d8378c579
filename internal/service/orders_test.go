package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"order-tracker/internal/models"
	"order-tracker/internal/store"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture() (*fakeStore, *recordingBroadcaster, *fakeAudit, *OrderService) {
	st := newFakeStore()
	bc := newRecordingBroadcaster()
	audit := &fakeAudit{}
	svc := NewOrderService(st, bc, audit, "ALP")
	return st, bc, audit, svc
}

func pickupRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Name:  "Ada",
		Email: "ada@example.com",
		Phone: "+15550100",
		Type:  models.FulfillmentPickup,
		Items: []OrderItemRequest{
			{ProductID: "p-1", Name: "Sourdough loaf", UnitPrice: 850, Quantity: 2, Category: "bread"},
			{ProductID: "p-2", Name: "Almond croissant", UnitPrice: 425, Quantity: 1, Category: "pastry"},
		},
	}
}

func TestCreateComputesDerivedFields(t *testing.T) {
	_, _, _, svc := newOrderFixture()

	order, err := svc.Create(context.Background(), pickupRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusReceived, order.Status)
	assert.Equal(t, 3, order.ItemCount)
	assert.Equal(t, int64(2*850+425), order.Subtotal)
	assert.Equal(t, order.Subtotal, order.Total)
	assert.True(t, strings.HasPrefix(order.ShortID, "ALP-"))
	assert.NotZero(t, order.ID)
}

func TestCreateDeliveryRequiresAddress(t *testing.T) {
	st, bc, _, svc := newOrderFixture()

	req := pickupRequest()
	req.Type = models.FulfillmentDelivery

	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, bc.events())

	orders, err := st.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders, "validation failures must have no side effects")

	req.Address = "12 Baker St"
	order, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentDelivery, order.Type)
}

func TestCreateBroadcastsNewOrder(t *testing.T) {
	_, bc, audit, svc := newOrderFixture()

	order, err := svc.Create(context.Background(), pickupRequest())
	require.NoError(t, err)

	events := bc.events()
	require.Len(t, events, 2)

	assert.Equal(t, models.TopicOrders, events[0].topic)
	global, err := models.DecodeOrderNew(events[0].event)
	require.NoError(t, err)
	assert.Equal(t, order.ShortID, global.ShortID)
	assert.Equal(t, models.StatusReceived, global.Status)
	assert.Equal(t, order.Total, global.Total)
	assert.Equal(t, order.ItemCount, global.ItemCount)
	assert.Equal(t, "Ada", global.Name)
	assert.Empty(t, global.Items, "global topic carries summary fields only")

	assert.Equal(t, models.OrderTopic(order.ShortID), events[1].topic)
	seed, err := models.DecodeOrderNew(events[1].event)
	require.NoError(t, err)
	assert.Len(t, seed.Items, 2, "per-order topic is seeded with the item list")

	entries := audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusReceived, entries[0].Status)
	assert.Equal(t, "checkout", entries[0].Actor)
}

func TestCreateRetriesShortIDCollision(t *testing.T) {
	st, _, _, svc := newOrderFixture()
	// force the collision path: the first insert fails like a unique-index
	// violation, the second proceeds with a fresh short id
	st.createErrs = []error{&pq.Error{Code: "23505"}}

	order, err := svc.Create(context.Background(), pickupRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.ShortID, "ALP-"))
}

func TestCreateDoesNotRetryOtherErrors(t *testing.T) {
	st, bc, _, svc := newOrderFixture()
	st.createErrs = []error{errors.New("storage unavailable")}

	_, err := svc.Create(context.Background(), pickupRequest())
	require.Error(t, err)
	assert.Empty(t, bc.events())
}

func TestGetReturnsOrderWithItems(t *testing.T) {
	_, _, _, svc := newOrderFixture()

	created, err := svc.Create(context.Background(), pickupRequest())
	require.NoError(t, err)

	order, items, err := svc.Get(context.Background(), created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, created.ShortID, order.ShortID)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1700), items[0].Subtotal)

	_, _, err = svc.Get(context.Background(), "ALP-MISSIN")
	require.ErrorIs(t, err, store.ErrNotFound)
}
