package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"command-bot/backend/internal/bot"
	"command-bot/backend/internal/store"
	"command-bot/backend/pkg/errors"
	"command-bot/backend/pkg/logger"
)

// Dispatcher processes bridge events
type Dispatcher interface {
	Handle(ctx context.Context, ev bot.Event) ([]bot.Reply, error)
}

// EventHandler accepts bridge events over REST
type EventHandler struct {
	handler Dispatcher
	store   *store.Store
}

// NewEventHandler creates a new event handler
func NewEventHandler(handler Dispatcher, s *store.Store) *EventHandler {
	return &EventHandler{handler: handler, store: s}
}

// EventResponse is returned for every accepted event
type EventResponse struct {
	Replies []bot.Reply `json:"replies"`
}

// PostEvent handles one event and returns the replies the bridge should send
func (h *EventHandler) PostEvent(c *gin.Context) {
	var ev bot.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		_ = c.Error(errors.NewBadRequestError(errors.CodeInvalidEvent, "Invalid request format"))
		return
	}

	replies, err := h.handler.Handle(c.Request.Context(), ev)
	if err != nil {
		if stderrors.Is(err, bot.ErrInvalidEvent) {
			_ = c.Error(errors.NewBadRequestError(errors.CodeInvalidEvent, err.Error()))
			return
		}
		logger.FromContext(c).LogError(err, "Failed to handle event", "chat_id", ev.ChatID)
		_ = c.Error(errors.NewInternalServerError(errors.CodeInternal, "Failed to handle event").Wrap(err))
		return
	}

	if replies == nil {
		replies = []bot.Reply{}
	}
	c.JSON(http.StatusOK, EventResponse{Replies: replies})
}

// CacheStats reports the recency cache counters
func (h *EventHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// RegisterRoutes registers event routes on an authenticated group
func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/events", h.PostEvent)
	router.GET("/cache/stats", h.CacheStats)
}
