package worker

import (
	"context"

	"order-tracker/internal/broker"
	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"go.uber.org/zap"
)

// StatusLogAppender persists audit rows. *store.Store satisfies it.
type StatusLogAppender interface {
	AppendStatusLog(ctx context.Context, entry *models.StatusLogEntry) error
}

// AuditWorker consumes the durable audit topic and appends one status_log
// row per lifecycle event, giving each order a queryable timeline beyond
// the per-stage timestamp columns.
type AuditWorker struct {
	consumer *broker.AuditConsumer
	store    StatusLogAppender
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.AuditConsumer, store StatusLogAppender) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.handle)
}

func (w *AuditWorker) handle(ctx context.Context, event models.AuditEvent) error {
	entry := &models.StatusLogEntry{
		OrderID:   event.OrderID,
		ShortID:   event.ShortID,
		Status:    event.Status,
		Actor:     event.Actor,
		ChangedAt: event.OccurredAt,
	}
	return w.store.AppendStatusLog(ctx, entry)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}
