package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"order-tracker/internal/models"
	"order-tracker/internal/util"

	"go.uber.org/zap"
)

// EmailSender delivers one email message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// Dispatcher sends the customer-facing confirmation messages. Both channels
// are attempted independently; a failure on one never blocks the other, and
// no failure propagates to the transition path. Failed sends are not queued
// for retry.
type Dispatcher struct {
	email  EmailSender
	sms    SMSSender
	logger *zap.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(email EmailSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{
		email:  email,
		sms:    sms,
		logger: util.GetLogger(),
	}
}

// OrderConfirmed notifies the customer that their order was confirmed. The
// two sends run concurrently and OrderConfirmed returns once both have
// finished, with results collected per channel.
func (d *Dispatcher) OrderConfirmed(ctx context.Context, order *models.Order) {
	subject := fmt.Sprintf("Order %s confirmed", order.ShortID)
	body := fmt.Sprintf("Hi %s, your order %s has been confirmed and is being worked on. "+
		"Track it any time with your order code.", order.Name, order.ShortID)
	text := fmt.Sprintf("%s: order %s confirmed! We'll text you as it progresses.",
		order.Name, order.ShortID)

	var wg sync.WaitGroup

	if d.email != nil && order.Email != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.send(ctx, "email", order.ShortID, func(ctx context.Context) error {
				return d.email.Send(ctx, order.Email, subject, body)
			})
		}()
	}

	if d.sms != nil && order.Phone != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.send(ctx, "sms", order.ShortID, func(ctx context.Context) error {
				return d.sms.Send(ctx, order.Phone, text)
			})
		}()
	}

	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, channel, shortID string, fn func(context.Context) error) {
	util.NotificationsAttemptedTotal.WithLabelValues(channel).Inc()

	start := time.Now()
	err := fn(ctx)
	util.NotificationLatency.WithLabelValues(channel).Observe(time.Since(start).Seconds())

	if err != nil {
		util.NotificationsFailedTotal.WithLabelValues(channel).Inc()
		d.logger.Error("Notification send failed",
			zap.String("channel", channel),
			zap.String("short_id", shortID),
			zap.Error(err))
		return
	}

	d.logger.Info("Notification sent",
		zap.String("channel", channel),
		zap.String("short_id", shortID))
}
