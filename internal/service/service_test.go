package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"order-tracker/internal/broker"
	"order-tracker/internal/models"
	"order-tracker/internal/store"
)

// fakeStore is an in-memory OrderStore with the same transition semantics
// as the Postgres store: single status write, stage timestamps set once and
// never cleared.
type fakeStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	items  map[int64][]models.OrderItem
	nextID int64

	createErrs    []error // popped one per CreateOrder call
	transitionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[string]*models.Order),
		items:  make(map[int64][]models.OrderItem),
	}
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return err
	}
	if _, ok := f.orders[order.ShortID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}

	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	stored := *order
	f.orders[order.ShortID] = &stored
	for i := range items {
		items[i].OrderID = order.ID
	}
	f.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (f *fakeStore) GetOrderByShortID(_ context.Context, shortID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[shortID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeStore) ListOrders(_ context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, shortID string, status models.Status) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.transitionErr != nil {
		return nil, f.transitionErr
	}

	order, ok := f.orders[shortID]
	if !ok {
		return nil, store.ErrNotFound
	}

	now := time.Now()
	order.Status = status
	order.UpdatedAt = now

	switch status {
	case models.StatusConfirmed:
		if order.ConfirmedAt == nil {
			order.ConfirmedAt = &now
		}
	case models.StatusPreparing:
		if order.PreparedAt == nil {
			order.PreparedAt = &now
		}
	case models.StatusReady:
		if order.ReadyAt == nil {
			order.ReadyAt = &now
		}
	case models.StatusOutForDelivery:
		if order.OutForDeliveryAt == nil {
			order.OutForDeliveryAt = &now
		}
	case models.StatusCompleted:
		if order.CompletedAt == nil {
			order.CompletedAt = &now
		}
	}

	copied := *order
	return &copied, nil
}

// seed inserts an order directly, bypassing the service.
func (f *fakeStore) seed(shortID string, status models.Status) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	order := &models.Order{
		ID:        f.nextID,
		ShortID:   shortID,
		Name:      "Ada",
		Email:     "ada@example.com",
		Phone:     "+15550100",
		Type:      models.FulfillmentPickup,
		Status:    status,
		ItemCount: 1,
		Subtotal:  1000,
		Total:     1000,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.orders[shortID] = order
	return order
}

type publishedEvent struct {
	topic string
	event models.Event
}

// recordingBroadcaster records publishes and optionally fails them while
// still supporting real subscriptions through the memory transport.
type recordingBroadcaster struct {
	*broker.MemoryBroadcaster
	mu         sync.Mutex
	published  []publishedEvent
	publishErr error
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{MemoryBroadcaster: broker.NewMemoryBroadcaster()}
}

func (r *recordingBroadcaster) Publish(ctx context.Context, topic string, event models.Event) error {
	r.mu.Lock()
	if r.publishErr != nil {
		err := r.publishErr
		r.mu.Unlock()
		return err
	}
	r.published = append(r.published, publishedEvent{topic: topic, event: event})
	r.mu.Unlock()

	return r.MemoryBroadcaster.Publish(ctx, topic, event)
}

func (r *recordingBroadcaster) events() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedEvent(nil), r.published...)
}

// fakeAudit collects audit events.
type fakeAudit struct {
	mu        sync.Mutex
	events    []models.AuditEvent
	appendErr error
}

func (f *fakeAudit) Append(_ context.Context, event models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAudit) all() []models.AuditEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AuditEvent(nil), f.events...)
}

// fakeNotifier signals each OrderConfirmed call on a channel.
type fakeNotifier struct {
	calls chan *models.Order
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan *models.Order, 4)}
}

func (f *fakeNotifier) OrderConfirmed(_ context.Context, order *models.Order) {
	f.calls <- order
}
