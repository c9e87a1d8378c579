package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of applied status transitions",
	}, []string{"status"})

	TransitionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_rejected_total",
		Help: "Total number of rejected status transitions",
	}, []string{"reason"})

	BroadcastPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_published_total",
		Help: "Total number of events published to broadcast topics",
	}, []string{"topic_kind"})

	BroadcastFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_failed_total",
		Help: "Total number of failed broadcast publishes",
	}, []string{"topic_kind"})

	AuditAppendFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_append_failed_total",
		Help: "Total number of failed audit log appends",
	})

	NotificationsAttemptedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_attempted_total",
		Help: "Total number of notification attempts",
	}, []string{"channel"})

	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of failed notification sends",
	}, []string{"channel"})

	NotificationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_send_latency_seconds",
		Help:    "Latency of notification sends",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
