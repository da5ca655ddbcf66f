package alerts

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"command-bot/backend/internal/models"
	"command-bot/backend/internal/recovery"
)

// AuditRepository stores deletion alerts in postgres
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a repository over db
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Migrate creates or updates the audit table
func (r *AuditRepository) Migrate() error {
	return r.db.AutoMigrate(&models.DeletionAlert{})
}

// Name implements Sink
func (r *AuditRepository) Name() string {
	return "audit"
}

// Deliver implements Sink
func (r *AuditRepository) Deliver(ctx context.Context, alert Alert) error {
	row := toModel(alert)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert deletion alert: %w", err)
	}
	return nil
}

// Recent returns the newest alerts for chatID, or for every chat when chatID is empty
func (r *AuditRepository) Recent(ctx context.Context, chatID string, limit int) ([]models.DeletionAlert, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Order("deleted_at DESC").Limit(limit)
	if chatID != "" {
		q = q.Where("chat_id = ?", chatID)
	}

	var rows []models.DeletionAlert
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list deletion alerts: %w", err)
	}
	return rows, nil
}

func toModel(alert Alert) models.DeletionAlert {
	deletedAt, err := time.ParseInLocation(recovery.TimeLayout, alert.DeletedAt, time.Local)
	if err != nil {
		deletedAt = alert.ObservedAt
	}
	return models.DeletionAlert{
		ChatID:         alert.ChatID,
		MessageID:      alert.MessageID,
		DeletedBy:      alert.DeletedBy,
		OriginalSender: alert.OriginalSender,
		MessageType:    string(alert.MessageType),
		Content:        alert.Content,
		Found:          alert.Found,
		DeletedAt:      deletedAt,
	}
}
