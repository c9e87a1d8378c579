package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"order-tracker/internal/models"
	"order-tracker/internal/service"
	"order-tracker/internal/store"
	"order-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderAPI is the creation/read surface. *service.OrderService satisfies it.
type OrderAPI interface {
	Create(ctx context.Context, req *service.CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, shortID string) (*models.Order, []models.OrderItem, error)
	List(ctx context.Context) ([]models.Order, error)
}

// TransitionAPI is the status mutation surface. *service.TransitionService
// satisfies it.
type TransitionAPI interface {
	Transition(ctx context.Context, shortID string, target models.Status, actor string) (*models.Order, error)
}

// StatusLogReader reads the audit trail. *store.Store satisfies it.
type StatusLogReader interface {
	GetStatusLog(ctx context.Context, shortID string) ([]models.StatusLogEntry, error)
}

// Handler contains HTTP handlers
type Handler struct {
	orders      OrderAPI
	transitions TransitionAPI
	statusLog   StatusLogReader
	auth        *Authenticator
}

// NewHandler creates a new HTTP handler
func NewHandler(orders OrderAPI, transitions TransitionAPI, statusLog StatusLogReader, auth *Authenticator) *Handler {
	return &Handler{
		orders:      orders,
		transitions: transitions,
		statusLog:   statusLog,
		auth:        auth,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:shortId", h.getOrder)

		admin := v1.Group("", h.auth.authenticate(), requireAdmin())
		{
			admin.GET("/orders", h.listOrders)
			admin.GET("/orders/:shortId/log", h.getStatusLog)
			admin.PATCH("/orders/:shortId/status", h.updateStatus)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order creation from the checkout flow
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid order",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create order",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"shortId": order.ShortID,
		"status":  order.Status,
		"order":   order,
	})
}

// getOrder handles the tracker's snapshot fetch by short id
func (h *Handler) getOrder(c *gin.Context) {
	shortID := c.Param("shortId")

	order, items, err := h.orders.Get(c.Request.Context(), shortID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch order",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// listOrders handles the admin board snapshot
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getStatusLog handles the admin audit trail read
func (h *Handler) getStatusLog(c *gin.Context) {
	entries, err := h.statusLog.GetStatusLog(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch status log",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"log": entries})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateStatus handles the admin status transition
func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	actor := "unknown"
	if identity, ok := callerIdentity(c); ok {
		actor = identity.Name
	}

	order, err := h.transitions.Transition(c.Request.Context(), c.Param("shortId"), models.Status(req.Status), actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status value",
			})
		case errors.Is(err, service.ErrTerminalStatus):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Order is already in a terminal status",
			})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update status",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
