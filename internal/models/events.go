package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event names carried on broadcast topics
const (
	EventOrderNew    = "order:new"
	EventOrderUpdate = "order:update"
)

// Topic names. TopicOrders is the single global topic the admin board
// listens on; each order additionally gets its own topic.
const TopicOrders = "orders"

// OrderTopic returns the per-order topic name for a short id.
func OrderTopic(shortID string) string {
	return fmt.Sprintf("order-%s", shortID)
}

// Event is the envelope published on broadcast topics. Data holds the
// event-specific payload, decoded by subscribers that care about it.
type Event struct {
	EventID   string          `json:"event_id"`
	Name      string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent builds an envelope around a marshaled payload.
func NewEvent(eventID, name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", name, err)
	}
	return Event{
		EventID:   eventID,
		Name:      name,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// OrderNewData is the order:new payload on the global topic. The per-order
// topic carries the same payload with the initial item list attached.
type OrderNewData struct {
	ID        int64       `json:"id"`
	ShortID   string      `json:"shortId"`
	Status    Status      `json:"status"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Total     int64       `json:"total"`
	ItemCount int         `json:"itemCount"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items,omitempty"`
}

// OrderUpdateData is the order:update payload.
type OrderUpdateData struct {
	ID      int64  `json:"id"`
	ShortID string `json:"shortId"`
	Status  Status `json:"status"`
}

// DecodeOrderNew decodes an order:new payload.
func DecodeOrderNew(e Event) (OrderNewData, error) {
	var d OrderNewData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return d, fmt.Errorf("failed to decode order:new payload: %w", err)
	}
	return d, nil
}

// DecodeOrderUpdate decodes an order:update payload.
func DecodeOrderUpdate(e Event) (OrderUpdateData, error) {
	var d OrderUpdateData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return d, fmt.Errorf("failed to decode order:update payload: %w", err)
	}
	return d, nil
}

// AuditEvent is appended to the durable Kafka audit topic on every
// creation and transition, and consumed by the audit worker.
type AuditEvent struct {
	EventID    string    `json:"event_id"`
	OrderID    int64     `json:"order_id"`
	ShortID    string    `json:"short_id"`
	Status     Status    `json:"status"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}
