package broker

import (
	"context"

	"order-tracker/internal/models"
)

// Broadcaster fans out order events to topic subscribers. Publishing is
// fire-and-forget from the caller's perspective: a failed publish is logged
// by the caller and never rolls anything back. There is no replay — a
// subscriber that connects late must fetch current state separately.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, event models.Event) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
}

// Subscription is a scoped handle on one topic. Events are delivered on
// Events() until Close is called; Close always releases the underlying
// transport resources and must be called on consumer teardown.
type Subscription struct {
	topic  string
	events chan models.Event
	close  func()
}

// Topic returns the subscribed topic name.
func (s *Subscription) Topic() string {
	return s.topic
}

// Events returns the delivery channel. It is closed after Close.
func (s *Subscription) Events() <-chan models.Event {
	return s.events
}

// Close unsubscribes and releases the transport resources. Safe to call
// once; the events channel is closed as a result.
func (s *Subscription) Close() {
	s.close()
}
