// Package tracker implements the customer-facing subscriber: a live view of
// one order, fed by a snapshot fetch plus the order's own broadcast topic.
// The view drives a progress stepper; pickup orders skip out_for_delivery in
// presentation even though the underlying status set is shared.
package tracker

import (
	"context"
	"sync"

	"order-tracker/internal/broker"
	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"go.uber.org/zap"
)

// SnapshotFetcher provides the initial order view. *service.OrderService
// satisfies it.
type SnapshotFetcher interface {
	Get(ctx context.Context, shortID string) (*models.Order, []models.OrderItem, error)
}

// View is the tracker's rendered state. StepIndex is the highlighted
// position within Steps; Canceled selects the distinct terminal rendering
// instead of a stepper position.
type View struct {
	ShortID   string             `json:"shortId"`
	Status    models.Status      `json:"status"`
	Type      string             `json:"type"`
	Items     []models.OrderItem `json:"items,omitempty"`
	Steps     []models.Status    `json:"steps"`
	StepIndex int                `json:"stepIndex"`
	Canceled  bool               `json:"canceled"`
}

// Tracker follows a single order over its per-order topic.
type Tracker struct {
	fetcher     SnapshotFetcher
	broadcaster broker.Broadcaster
	shortID     string
	logger      *zap.Logger

	mu     sync.RWMutex
	view   View
	sub    *broker.Subscription
	closed chan struct{}
}

// New creates a tracker for one order; call Start to fetch and subscribe.
func New(fetcher SnapshotFetcher, broadcaster broker.Broadcaster, shortID string) *Tracker {
	return &Tracker{
		fetcher:     fetcher,
		broadcaster: broadcaster,
		shortID:     shortID,
		logger:      util.GetLogger(),
		closed:      make(chan struct{}),
	}
}

// Start fetches the order snapshot, degrading to an empty received view
// when the fetch fails, then subscribes to the order's topic.
func (t *Tracker) Start(ctx context.Context) error {
	view := View{
		ShortID: t.shortID,
		Status:  models.StatusReceived,
		Type:    models.FulfillmentPickup,
	}

	order, items, err := t.fetcher.Get(ctx, t.shortID)
	if err != nil {
		t.logger.Warn("Snapshot fetch failed, starting from empty view",
			zap.String("short_id", t.shortID), zap.Error(err))
	} else {
		view.Status = order.Status
		view.Type = order.Type
		view.Items = items
	}
	t.mu.Lock()
	t.view = derive(view)
	t.mu.Unlock()

	sub, err := t.broadcaster.Subscribe(ctx, models.OrderTopic(t.shortID))
	if err != nil {
		return err
	}
	t.sub = sub

	go t.run()
	return nil
}

func (t *Tracker) run() {
	defer close(t.closed)
	for event := range t.sub.Events() {
		t.apply(event)
	}
}

func (t *Tracker) apply(event models.Event) {
	switch event.Name {
	case models.EventOrderUpdate:
		data, err := models.DecodeOrderUpdate(event)
		if err != nil {
			t.logger.Error("Failed to decode order:update",
				zap.String("short_id", t.shortID), zap.Error(err))
			return
		}
		t.mu.Lock()
		t.view.Status = data.Status
		t.view = derive(t.view)
		t.mu.Unlock()

	case models.EventOrderNew:
		data, err := models.DecodeOrderNew(event)
		if err != nil {
			t.logger.Error("Failed to decode order:new",
				zap.String("short_id", t.shortID), zap.Error(err))
			return
		}
		t.mu.Lock()
		t.view.Status = data.Status
		t.view.Type = data.Type
		if len(data.Items) > 0 {
			t.view.Items = data.Items
		}
		t.view = derive(t.view)
		t.mu.Unlock()

	default:
		t.logger.Warn("Unhandled event",
			zap.String("short_id", t.shortID), zap.String("event", event.Name))
	}
}

// View returns a copy of the current view.
func (t *Tracker) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view
}

// Close unsubscribes from the order topic and waits for the reducer to
// drain. Must be called on teardown so the subscription does not leak.
func (t *Tracker) Close() {
	if t.sub == nil {
		return
	}
	t.sub.Close()
	<-t.closed
}

// Steps returns the presentation sequence for a fulfillment type.
func Steps(fulfillmentType string) []models.Status {
	steps := []models.Status{
		models.StatusReceived,
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusReady,
	}
	if fulfillmentType == models.FulfillmentDelivery {
		steps = append(steps, models.StatusOutForDelivery)
	}
	return append(steps, models.StatusCompleted)
}

// derive recomputes the stepper fields from Status and Type.
func derive(v View) View {
	if v.Status == models.StatusCanceled {
		v.Canceled = true
		v.Steps = Steps(v.Type)
		return v
	}

	v.Canceled = false
	v.Steps = Steps(v.Type)
	v.StepIndex = 0
	for i, s := range v.Steps {
		if s.StepIndex() <= v.Status.StepIndex() {
			v.StepIndex = i
		}
	}
	return v
}
