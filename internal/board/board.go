// Package board implements the admin-facing subscriber: a live view of all
// orders grouped by status, fed by an initial snapshot plus the global
// broadcast topic.
package board

import (
	"context"
	"sync"
	"time"

	"order-tracker/internal/broker"
	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"go.uber.org/zap"
)

// SnapshotLoader provides the initial board state. *store.Store satisfies
// it.
type SnapshotLoader interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}

// Card is one order as the board displays it: the summary fields carried by
// order:new plus the live status.
type Card struct {
	ID        int64         `json:"id"`
	ShortID   string        `json:"shortId"`
	Status    models.Status `json:"status"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Total     int64         `json:"total"`
	ItemCount int           `json:"itemCount"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Board subscribes to the global orders topic and reduces incoming events
// into local state. Events are merged by short id: order:new prepends unless
// the order is already known, order:update shallow-merges the status.
type Board struct {
	loader      SnapshotLoader
	broadcaster broker.Broadcaster
	logger      *zap.Logger

	mu     sync.RWMutex
	cards  []*Card // newest first
	byID   map[string]*Card
	sub    *broker.Subscription
	closed chan struct{}
}

// New creates a board; call Start to load the snapshot and subscribe.
func New(loader SnapshotLoader, broadcaster broker.Broadcaster) *Board {
	return &Board{
		loader:      loader,
		broadcaster: broadcaster,
		logger:      util.GetLogger(),
		byID:        make(map[string]*Card),
		closed:      make(chan struct{}),
	}
}

// Start loads the current snapshot and subscribes to the global topic.
// Events published between the snapshot read and the subscribe call can be
// missed; there is no replay.
func (b *Board) Start(ctx context.Context) error {
	orders, err := b.loader.ListOrders(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	for i := range orders {
		card := cardFromOrder(&orders[i])
		b.cards = append(b.cards, card)
		b.byID[card.ShortID] = card
	}
	b.mu.Unlock()

	sub, err := b.broadcaster.Subscribe(ctx, models.TopicOrders)
	if err != nil {
		return err
	}
	b.sub = sub

	go b.run()
	return nil
}

func (b *Board) run() {
	defer close(b.closed)
	for event := range b.sub.Events() {
		b.apply(event)
	}
}

func (b *Board) apply(event models.Event) {
	switch event.Name {
	case models.EventOrderNew:
		data, err := models.DecodeOrderNew(event)
		if err != nil {
			b.logger.Error("Failed to decode order:new", zap.Error(err))
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.byID[data.ShortID]; ok {
			// duplicate order:new for a known order is the one event
			// the reducer drops
			return
		}
		card := &Card{
			ID:        data.ID,
			ShortID:   data.ShortID,
			Status:    data.Status,
			Name:      data.Name,
			Type:      data.Type,
			Total:     data.Total,
			ItemCount: data.ItemCount,
			CreatedAt: data.CreatedAt,
		}
		b.cards = append([]*Card{card}, b.cards...)
		b.byID[card.ShortID] = card

	case models.EventOrderUpdate:
		data, err := models.DecodeOrderUpdate(event)
		if err != nil {
			b.logger.Error("Failed to decode order:update", zap.Error(err))
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		card, ok := b.byID[data.ShortID]
		if !ok {
			b.logger.Warn("Update for unknown order",
				zap.String("short_id", data.ShortID))
			return
		}
		card.Status = data.Status

	default:
		b.logger.Warn("Unhandled event", zap.String("event", event.Name))
	}
}

// Columns returns the board grouped into the fixed status columns, each
// column newest first.
func (b *Board) Columns() map[models.Status][]Card {
	b.mu.RLock()
	defer b.mu.RUnlock()

	columns := make(map[models.Status][]Card, len(models.Statuses))
	for _, s := range models.Statuses {
		columns[s] = []Card{}
	}
	for _, card := range b.cards {
		columns[card.Status] = append(columns[card.Status], *card)
	}
	return columns
}

// Snapshot returns a copy of the current board state, newest first.
func (b *Board) Snapshot() []Card {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Card, len(b.cards))
	for i, card := range b.cards {
		out[i] = *card
	}
	return out
}

// Close unsubscribes from the global topic and waits for the reducer to
// drain. Must be called on teardown so the subscription does not leak.
func (b *Board) Close() {
	if b.sub == nil {
		return
	}
	b.sub.Close()
	<-b.closed
}

func cardFromOrder(o *models.Order) *Card {
	return &Card{
		ID:        o.ID,
		ShortID:   o.ShortID,
		Status:    o.Status,
		Name:      o.Name,
		Type:      o.Type,
		Total:     o.Total,
		ItemCount: o.ItemCount,
		CreatedAt: o.CreatedAt,
	}
}
