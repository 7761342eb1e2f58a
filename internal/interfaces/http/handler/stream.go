package handler

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appinv "github.com/stocktrack/backend/internal/application/inventory"
	"github.com/stocktrack/backend/internal/infrastructure/broadcast"
	"github.com/stocktrack/backend/internal/interfaces/http/middleware"
)

// StreamHandler serves Server-Sent Events connections scoped to a single
// section. Every item mutation committed in the section is forwarded to
// all of its connected observers.
type StreamHandler struct {
	BaseHandler
	sections    *appinv.SectionService
	broadcaster broadcast.Broadcaster
	logger      *zap.Logger
	heartbeat   time.Duration
	maxClients  int
	clientCount atomic.Int64
}

// StreamOption is a functional option for configuring the handler
type StreamOption func(*StreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) StreamOption {
	return func(h *StreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) StreamOption {
	return func(h *StreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients sets the maximum number of concurrent SSE clients
func WithStreamMaxClients(max int) StreamOption {
	return func(h *StreamHandler) {
		h.maxClients = max
	}
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(sections *appinv.SectionService, broadcaster broadcast.Broadcaster, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{
		sections:    sections,
		broadcaster: broadcaster,
		logger:      zap.NewNop(),
		heartbeat:   30 * time.Second,
		maxClients:  10000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Stream handles GET /sections/:id/stream. The connection stays open until
// the client disconnects; committed item changes in the section arrive as
// "itemUpdate" and "itemDelete" events with the item state as payload.
func (h *StreamHandler) Stream(c *gin.Context) {
	sectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	if h.maxClients > 0 && int(h.clientCount.Load()) >= h.maxClients {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MAX_CONNECTIONS_REACHED",
				"message": "Maximum number of stream connections reached",
			},
		})
		return
	}

	// A stream against a missing section fails up front rather than
	// silently delivering nothing.
	if err := h.sections.SectionExists(c.Request.Context(), sectionID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	sub, err := h.broadcaster.Subscribe(c.Request.Context(), sectionID)
	if err != nil {
		h.logger.Error("Failed to subscribe to section stream",
			zap.String("section_id", sectionID.String()),
			zap.Error(err))
		h.InternalError(c, "Failed to open event stream")
		return
	}
	defer sub.Cancel()

	h.clientCount.Add(1)
	defer h.clientCount.Add(-1)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	userID := middleware.GetJWTUserID(c)
	h.logger.Info("Stream client connected",
		zap.String("subscription_id", sub.ID),
		zap.String("section_id", sectionID.String()),
		zap.String("user_id", userID))

	h.writeEvent(c.Writer, "connected", "",
		fmt.Sprintf(`{"subscriptionId":"%s","timestamp":%d}`, sub.ID, time.Now().Unix()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("Stream client disconnected",
				zap.String("subscription_id", sub.ID),
				zap.String("section_id", sectionID.String()))
			return
		case <-ticker.C:
			h.writeEvent(c.Writer, "heartbeat", "",
				fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()))
			c.Writer.Flush()
		case event, open := <-sub.Events:
			if !open {
				h.logger.Info("Stream closed by broadcaster",
					zap.String("subscription_id", sub.ID))
				return
			}
			h.writeEvent(c.Writer, event.Name,
				fmt.Sprintf("%d", event.Timestamp), string(event.Data))
			c.Writer.Flush()
		}
	}
}

// ClientCount returns the number of connected stream clients.
func (h *StreamHandler) ClientCount() int {
	return int(h.clientCount.Load())
}

func (h *StreamHandler) writeEvent(w io.Writer, name, id, data string) {
	if name != "" {
		fmt.Fprintf(w, "event: %s\n", name)
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
