package bot

import (
	"errors"
	"fmt"
	"time"

	"command-bot/backend/internal/content"
)

// ErrInvalidEvent is returned for events missing required fields
var ErrInvalidEvent = errors.New("invalid event")

// EventType distinguishes ordinary messages from deletion notices
type EventType string

const (
	EventMessage  EventType = "message"
	EventDeletion EventType = "deletion"
)

// Event is one inbound notification from the messaging bridge
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	FromMe    bool      `json:"from_me,omitempty"`

	// Message payload
	Kind       string `json:"kind,omitempty"`
	Text       string `json:"text,omitempty"`
	Caption    string `json:"caption,omitempty"`
	QuotedText string `json:"quoted_text,omitempty"`

	// Deletion payload
	DeletedMessageID string `json:"deleted_message_id,omitempty"`
	DeletedBy        string `json:"deleted_by,omitempty"`

	// Timestamp is in unix seconds; zero means now
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Reply is an outbound message for the bridge to send
type Reply struct {
	ChatID          string `json:"chat_id"`
	Text            string `json:"text"`
	QuotedMessageID string `json:"quoted_message_id,omitempty"`
}

// Validate checks the fields required by the event type
func (e Event) Validate() error {
	if e.ChatID == "" {
		return fmt.Errorf("%w: chat_id is required", ErrInvalidEvent)
	}
	switch e.Type {
	case EventMessage:
		if e.MessageID == "" {
			return fmt.Errorf("%w: message_id is required", ErrInvalidEvent)
		}
	case EventDeletion:
		if e.DeletedMessageID == "" {
			return fmt.Errorf("%w: deleted_message_id is required", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}

// Raw returns the content payload of a message event
func (e Event) Raw() content.Raw {
	return content.Raw{Kind: e.Kind, Text: e.Text, Caption: e.Caption}
}

func (e Event) time(now func() time.Time) time.Time {
	if e.Timestamp > 0 {
		return time.Unix(e.Timestamp, 0)
	}
	return now()
}
