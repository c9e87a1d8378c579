package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisBroadcaster implements Broadcaster over Redis PUBLISH/SUBSCRIBE.
// Per-topic ordering is whatever the transport provides from a single
// publisher; delivery is at-most-once.
type RedisBroadcaster struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisBroadcaster connects to Redis and verifies the connection.
func NewRedisBroadcaster(addr, password string, db int) (*RedisBroadcaster, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBroadcaster{rdb: rdb, logger: util.GetLogger()}, nil
}

// Close closes the Redis connection.
func (b *RedisBroadcaster) Close() error {
	return b.rdb.Close()
}

// Publish sends an event to a topic as JSON.
func (b *RedisBroadcaster) Publish(ctx context.Context, topic string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe opens a subscription on one topic. The returned handle owns the
// Redis PubSub connection; Close releases it.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, topic)

	// Receive forces the SUBSCRIBE round trip so events published after
	// this call are not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	events := make(chan models.Event, 16)
	var once sync.Once

	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Error("Dropping malformed event",
					zap.String("topic", topic), zap.Error(err))
				continue
			}
			events <- event
		}
	}()

	return &Subscription{
		topic:  topic,
		events: events,
		close: func() {
			once.Do(func() {
				if err := pubsub.Close(); err != nil {
					b.logger.Error("Failed to close subscription",
						zap.String("topic", topic), zap.Error(err))
				}
			})
		},
	}, nil
}
