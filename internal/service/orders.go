package service

import (
	"context"
	"errors"
	"fmt"

	"order-tracker/internal/broker"
	"order-tracker/internal/models"
	"order-tracker/internal/store"
	"order-tracker/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrValidation is wrapped by creation-time validation failures.
var ErrValidation = errors.New("validation failed")

// shortIDAttempts bounds collision retries on order creation.
const shortIDAttempts = 5

// OrderService handles order creation and snapshot reads. Status mutation
// lives in TransitionService only.
type OrderService struct {
	store         OrderStore
	broadcaster   broker.Broadcaster
	audit         AuditSink
	shortIDPrefix string
	logger        *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, broadcaster broker.Broadcaster, audit AuditSink, shortIDPrefix string) *OrderService {
	return &OrderService{
		store:         store,
		broadcaster:   broadcaster,
		audit:         audit,
		shortIDPrefix: shortIDPrefix,
		logger:        util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Name    string             `json:"name" binding:"required"`
	Email   string             `json:"email" binding:"required,email"`
	Phone   string             `json:"phone" binding:"required"`
	Type    string             `json:"type" binding:"required,oneof=pickup delivery"`
	Address string             `json:"address,omitempty"`
	Notes   string             `json:"notes,omitempty"`
	Items   []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest represents a line item in a create request
type OrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	UnitPrice int64  `json:"unitPrice" binding:"required,min=1"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Category  string `json:"category,omitempty"`
}

// Create persists a new order in received status, broadcasts order:new on
// the global topic and seeds the order's own topic with the item list.
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Create")
	defer span.End()

	if req.Type == models.FulfillmentDelivery && req.Address == "" {
		return nil, fmt.Errorf("%w: address is required for delivery orders", ErrValidation)
	}

	items := make([]models.OrderItem, len(req.Items))
	var itemCount int
	var subtotal int64
	for i, it := range req.Items {
		lineSubtotal := it.UnitPrice * int64(it.Quantity)
		items[i] = models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Category:  it.Category,
			Subtotal:  lineSubtotal,
		}
		itemCount += it.Quantity
		subtotal += lineSubtotal
	}

	order := &models.Order{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Type:      req.Type,
		Address:   req.Address,
		Notes:     req.Notes,
		Status:    models.StatusReceived,
		ItemCount: itemCount,
		Subtotal:  subtotal,
		Total:     subtotal,
	}

	if err := s.persistWithShortID(ctx, order, items); err != nil {
		util.SpanError(span, err)
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("short_id", order.ShortID),
		zap.Int64("order_id", order.ID),
		zap.Int("item_count", order.ItemCount))

	created := models.OrderNewData{
		ID:        order.ID,
		ShortID:   order.ShortID,
		Status:    order.Status,
		Name:      order.Name,
		Type:      order.Type,
		Total:     order.Total,
		ItemCount: order.ItemCount,
		CreatedAt: order.CreatedAt,
	}
	s.publish(ctx, models.TopicOrders, "global", models.EventOrderNew, created)

	seed := created
	seed.Items = items
	s.publish(ctx, models.OrderTopic(order.ShortID), "order", models.EventOrderNew, seed)

	s.appendAudit(ctx, order, "checkout")

	return order, nil
}

// persistWithShortID generates a short id and inserts, retrying on the
// unique-index collision a fresh random code can hit.
func (s *OrderService) persistWithShortID(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	for attempt := 0; attempt < shortIDAttempts; attempt++ {
		shortID, err := models.NewShortID(s.shortIDPrefix)
		if err != nil {
			return err
		}
		order.ShortID = shortID

		err = s.store.CreateOrder(ctx, order, items)
		if err == nil {
			return nil
		}
		if store.IsUniqueViolation(err) {
			s.logger.Warn("Short id collision, regenerating",
				zap.String("short_id", shortID))
			continue
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return fmt.Errorf("failed to create order: short id collisions exhausted %d attempts", shortIDAttempts)
}

// Get returns the order snapshot and its line items, for the tracker's
// initial load.
func (s *OrderService) Get(ctx context.Context, shortID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByShortID(ctx, shortID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// List returns all orders, newest first, for the admin board snapshot.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.store.ListOrders(ctx)
}

func (s *OrderService) publish(ctx context.Context, topic, kind, name string, payload interface{}) {
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

func (s *OrderService) appendAudit(ctx context.Context, order *models.Order, actor string) {
	if s.audit == nil {
		return
	}

	event := models.AuditEvent{
		EventID:    uuid.New().String(),
		OrderID:    order.ID,
		ShortID:    order.ShortID,
		Status:     order.Status,
		Actor:      actor,
		OccurredAt: order.CreatedAt,
	}

	if err := s.audit.Append(ctx, event); err != nil {
		util.AuditAppendFailedTotal.Inc()
		s.logger.Error("Failed to append audit event",
			zap.String("short_id", order.ShortID),
			zap.Error(err))
	}
}
