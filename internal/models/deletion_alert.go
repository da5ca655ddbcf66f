package models

import (
	"time"
)

// DeletionAlert is an audit row written for every observed deletion
type DeletionAlert struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ChatID         string    `json:"chat_id" gorm:"index;size:255"`
	MessageID      string    `json:"message_id" gorm:"index;size:255"`
	DeletedBy      string    `json:"deleted_by" gorm:"size:255"`
	OriginalSender string    `json:"original_sender" gorm:"size:255"`
	MessageType    string    `json:"message_type" gorm:"size:32"`
	Content        string    `json:"content" gorm:"type:text"`
	Found          bool      `json:"found"`
	DeletedAt      time.Time `json:"deleted_at" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName overrides the gorm default
func (DeletionAlert) TableName() string {
	return "deletion_alerts"
}
