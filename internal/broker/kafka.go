package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditProducer appends order lifecycle events to the durable audit topic.
// Like the broadcast topics this is a best-effort side channel: append
// failures are logged by the caller and never fail the transition.
type AuditProducer struct {
	writer *kafka.Writer
}

// NewAuditProducer creates a Kafka producer for the audit topic.
func NewAuditProducer(brokers []string, topic string) *AuditProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &AuditProducer{writer: writer}
}

// Append writes one audit event, keyed by short id so per-order events stay
// on one partition in order.
func (p *AuditProducer) Append(ctx context.Context, event models.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ShortID),
		Value: payload,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// Close closes the producer
func (p *AuditProducer) Close() error {
	return p.writer.Close()
}

// AuditHandler processes one decoded audit event.
type AuditHandler func(ctx context.Context, event models.AuditEvent) error

// AuditConsumer reads the audit topic and feeds events to a handler.
type AuditConsumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

// NewAuditConsumer creates a Kafka consumer for the audit topic.
func NewAuditConsumer(brokers []string, topic, groupID string) *AuditConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &AuditConsumer{reader: reader, logger: util.GetLogger()}
}

// StartConsuming loops until the context is cancelled, decoding audit
// events and handing them off. Malformed messages are committed and
// skipped; handler errors leave the message uncommitted for redelivery.
func (c *AuditConsumer) StartConsuming(ctx context.Context, handler AuditHandler) error {
	c.logger.Info("Starting audit consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Audit consumer context cancelled, stopping")
			return ctx.Err()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				c.logger.Error("Error fetching audit message", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			var event models.AuditEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.Error("Skipping malformed audit message", zap.Error(err))
				_ = c.reader.CommitMessages(ctx, msg)
				continue
			}

			if err := handler(ctx, event); err != nil {
				c.logger.Error("Error handling audit event",
					zap.String("short_id", event.ShortID), zap.Error(err))
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("Error committing audit message", zap.Error(err))
			}
		}
	}
}

// Close closes the consumer
func (c *AuditConsumer) Close() error {
	return c.reader.Close()
}
