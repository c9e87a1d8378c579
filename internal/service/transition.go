package service

import (
	"context"
	"errors"
	"time"

	"order-tracker/internal/broker"
	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidStatus is returned when the target status is not one of
	// the seven enumerated values.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrTerminalStatus is returned when a transition is requested on an
	// order already in a terminal state (completed, canceled).
	ErrTerminalStatus = errors.New("order is in a terminal status")
)

// OrderStore is the persistence surface the services need. *store.Store
// satisfies it.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByShortID(ctx context.Context, shortID string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ApplyTransition(ctx context.Context, shortID string, status models.Status) (*models.Order, error)
}

// ConfirmationNotifier sends the out-of-band confirmation messages.
type ConfirmationNotifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

// AuditSink appends order lifecycle events to the durable audit stream.
type AuditSink interface {
	Append(ctx context.Context, event models.AuditEvent) error
}

// TransitionService is the sole writer of an order's status. Persistence is
// the durability boundary: broadcast, audit and notification are best-effort
// follow-ons that never roll the persisted status back.
type TransitionService struct {
	store       OrderStore
	broadcaster broker.Broadcaster
	audit       AuditSink
	notifier    ConfirmationNotifier
	logger      *zap.Logger
}

// NewTransitionService creates a new transition service
func NewTransitionService(
	store OrderStore,
	broadcaster broker.Broadcaster,
	audit AuditSink,
	notifier ConfirmationNotifier,
) *TransitionService {
	return &TransitionService{
		store:       store,
		broadcaster: broadcaster,
		audit:       audit,
		notifier:    notifier,
		logger:      util.GetLogger(),
	}
}

// Transition moves the order identified by shortID to target. On success it
// publishes order:update to the global topic and the order's own topic,
// appends an audit event, and — when target is confirmed — dispatches the
// customer notifications without blocking the caller.
//
// The legal-transition graph is intentionally not enforced beyond terminal
// absorption: any enumerated status can be set on a non-terminal order.
func (s *TransitionService) Transition(ctx context.Context, shortID string, target models.Status, actor string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "TransitionService.Transition")
	defer span.End()

	if !target.Valid() {
		util.TransitionsRejectedTotal.WithLabelValues("invalid_status").Inc()
		return nil, ErrInvalidStatus
	}

	current, err := s.store.GetOrderByShortID(ctx, shortID)
	if err != nil {
		util.TransitionsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if current.Status.Terminal() {
		util.TransitionsRejectedTotal.WithLabelValues("terminal").Inc()
		return nil, ErrTerminalStatus
	}

	order, err := s.store.ApplyTransition(ctx, shortID, target)
	if err != nil {
		util.SpanError(span, err)
		util.TransitionsRejectedTotal.WithLabelValues("persistence").Inc()
		return nil, err
	}

	util.TransitionsTotal.WithLabelValues(string(target)).Inc()
	s.logger.Info("Order transitioned",
		zap.String("short_id", shortID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actor))

	update := models.OrderUpdateData{ID: order.ID, ShortID: order.ShortID, Status: order.Status}
	s.publish(ctx, models.TopicOrders, "global", models.EventOrderUpdate, update)
	s.publish(ctx, models.OrderTopic(order.ShortID), "order", models.EventOrderUpdate, update)

	s.appendAudit(ctx, order, actor)

	if target == models.StatusConfirmed && s.notifier != nil {
		notified := *order
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.notifier.OrderConfirmed(ctx, &notified)
		}()
	}

	return order, nil
}

// publish is fire-and-forget: failures are counted and logged, never
// returned to the transition path.
func (s *TransitionService) publish(ctx context.Context, topic, kind, name string, payload interface{}) {
	event, err := models.NewEvent(uuid.New().String(), name, payload)
	if err != nil {
		s.logger.Error("Failed to build event", zap.String("topic", topic), zap.Error(err))
		return
	}

	if err := s.broadcaster.Publish(ctx, topic, event); err != nil {
		util.BroadcastFailedTotal.WithLabelValues(kind).Inc()
		s.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.String("event", name),
			zap.Error(err))
		return
	}

	util.BroadcastPublishedTotal.WithLabelValues(kind).Inc()
}

func (s *TransitionService) appendAudit(ctx context.Context, order *models.Order, actor string) {
	if s.audit == nil {
		return
	}

	event := models.AuditEvent{
		EventID:    uuid.New().String(),
		OrderID:    order.ID,
		ShortID:    order.ShortID,
		Status:     order.Status,
		Actor:      actor,
		OccurredAt: order.UpdatedAt,
	}

	if err := s.audit.Append(ctx, event); err != nil {
		util.AuditAppendFailedTotal.Inc()
		s.logger.Error("Failed to append audit event",
			zap.String("short_id", order.ShortID),
			zap.Error(err))
	}
}
