package models

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Fulfillment types
const (
	FulfillmentPickup   = "pickup"
	FulfillmentDelivery = "delivery"
)

// Order is the central entity. Prices are stored in cents. item_count,
// subtotal and total are computed once at creation and never recomputed,
// so a board keeps displaying the figures the customer saw.
type Order struct {
	ID        int64  `db:"id" json:"id"`
	ShortID   string `db:"short_id" json:"shortId"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Type      string `db:"type" json:"type"`
	Address   string `db:"address" json:"address,omitempty"`
	Notes     string `db:"notes" json:"notes,omitempty"`
	Status    Status `db:"status" json:"status"`
	ItemCount int    `db:"item_count" json:"itemCount"`
	Subtotal  int64  `db:"subtotal" json:"subtotal"`
	Total     int64  `db:"total" json:"total"`

	ConfirmedAt      *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`
	PreparedAt       *time.Time `db:"prepared_at" json:"preparedAt,omitempty"`
	ReadyAt          *time.Time `db:"ready_at" json:"readyAt,omitempty"`
	OutForDeliveryAt *time.Time `db:"out_for_delivery_at" json:"outForDeliveryAt,omitempty"`
	CompletedAt      *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// StageTime returns the recorded stage timestamp for s, or nil.
func (o *Order) StageTime(s Status) *time.Time {
	switch s {
	case StatusConfirmed:
		return o.ConfirmedAt
	case StatusPreparing:
		return o.PreparedAt
	case StatusReady:
		return o.ReadyAt
	case StatusOutForDelivery:
		return o.OutForDeliveryAt
	case StatusCompleted:
		return o.CompletedAt
	}
	return nil
}

// OrderItem is a line item captured at creation time.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"orderId"`
	ProductID string `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	UnitPrice int64  `db:"unit_price" json:"unitPrice"`
	Quantity  int    `db:"quantity" json:"quantity"`
	Category  string `db:"category" json:"category,omitempty"`
	Subtotal  int64  `db:"subtotal" json:"subtotal"`
}

// StatusLogEntry is one row of the durable audit trail.
type StatusLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"orderId"`
	ShortID   string    `db:"short_id" json:"shortId"`
	Status    Status    `db:"status" json:"status"`
	Actor     string    `db:"actor" json:"actor"`
	ChangedAt time.Time `db:"changed_at" json:"changedAt"`
}

const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const shortIDLength = 6

// NewShortID generates a human-shareable order code such as "ALP-1A2B3C".
// prefix identifies the storefront. Uniqueness is enforced by the store;
// callers retry on collision.
func NewShortID(prefix string) (string, error) {
	buf := make([]byte, shortIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate short id: %w", err)
	}
	for i, b := range buf {
		buf[i] = shortIDAlphabet[int(b)%len(shortIDAlphabet)]
	}
	return fmt.Sprintf("%s-%s", prefix, buf), nil
}
