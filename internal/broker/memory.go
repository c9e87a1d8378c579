package broker

import (
	"context"
	"sync"

	"order-tracker/internal/models"
)

// MemoryBroadcaster is an in-process Broadcaster with the same at-most-once,
// no-replay contract as the Redis transport. It backs single-process
// deployments and the test suite.
type MemoryBroadcaster struct {
	mu   sync.Mutex
	subs map[string][]*memorySub
}

type memorySub struct {
	events chan models.Event
}

// NewMemoryBroadcaster creates an empty in-process broadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[string][]*memorySub)}
}

// Publish delivers the event to current subscribers of the topic. A
// subscriber whose buffer is full misses the event, matching the
// at-most-once contract.
func (b *MemoryBroadcaster) Publish(_ context.Context, topic string, event models.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[topic] {
		select {
		case sub.events <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber on one topic.
func (b *MemoryBroadcaster) Subscribe(_ context.Context, topic string) (*Subscription, error) {
	sub := &memorySub{events: make(chan models.Event, 16)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	var once sync.Once
	return &Subscription{
		topic:  topic,
		events: sub.events,
		close: func() {
			once.Do(func() {
				b.mu.Lock()
				remaining := b.subs[topic][:0]
				for _, s := range b.subs[topic] {
					if s != sub {
						remaining = append(remaining, s)
					}
				}
				b.subs[topic] = remaining
				b.mu.Unlock()
				close(sub.events)
			})
		},
	}, nil
}
