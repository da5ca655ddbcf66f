package api

import (
	"context"
	"net/http"
	"strconv"

	"command-bot/backend/internal/models"
	"command-bot/backend/pkg/errors"
	"command-bot/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MaxAlertsLimit caps the page size of the alert history
const MaxAlertsLimit = 100

// AlertHistory lists audited deletion alerts
type AlertHistory interface {
	Recent(ctx context.Context, chatID string, limit int) ([]models.DeletionAlert, error)
}

// AlertsHandler serves the deletion audit log
type AlertsHandler struct {
	history AlertHistory
}

// NewAlertsHandler creates a handler over history
func NewAlertsHandler(history AlertHistory) *AlertsHandler {
	return &AlertsHandler{history: history}
}

// ListAlerts returns the newest alerts, optionally for one chat
func (h *AlertsHandler) ListAlerts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxAlertsLimit {
			_ = c.Error(errors.NewBadRequestError(errors.CodeInvalidEvent, "limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	rows, err := h.history.Recent(c.Request.Context(), c.Query("chat_id"), limit)
	if err != nil {
		logger.FromContext(c).LogError(err, "Failed to list alerts")
		_ = c.Error(errors.NewInternalServerError(errors.CodeInternal, "Failed to list alerts").Wrap(err))
		return
	}
	if rows == nil {
		rows = []models.DeletionAlert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": rows})
}

// RegisterRoutes registers the alert routes on an authenticated group
func (h *AlertsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/alerts", h.ListAlerts)
}
