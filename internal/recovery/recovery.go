// Package recovery records observed messages and recovers their content when
// the network later reports them as deleted.
package recovery

import (
	"time"

	"command-bot/backend/internal/store"
	"command-bot/backend/pkg/logger"
)

// NotCached is reported as the content of a deleted message the bot never saw
const NotCached = "Unknown content (not cached)"

// TimeLayout is the display format of capture and deletion times
const TimeLayout = "1/2/2006, 3:04:05 PM"

// Observed describes an inbound, non-control message
type Observed struct {
	ChatID    string
	MessageID string
	Content   string
	Sender    string
	Type      store.MessageType
	At        time.Time
}

// Deleted describes a deletion notification
type Deleted struct {
	ChatID    string
	MessageID string
	DeletedBy string
	At        time.Time
}

// Recovery is the outcome of a deletion lookup
type Recovery struct {
	Found          bool              `json:"found"`
	Content        string            `json:"content"`
	ChatID         string            `json:"chat_id"`
	MessageID      string            `json:"message_id"`
	DeletedBy      string            `json:"deleted_by"`
	DeletedAt      string            `json:"deleted_at"`
	OriginalSender string            `json:"original_sender,omitempty"`
	SentAt         string            `json:"sent_at,omitempty"`
	MessageType    store.MessageType `json:"message_type,omitempty"`
}

// Tracker drives the message side of the ephemeral store
type Tracker struct {
	store *store.Store
	log   *logger.Logger
	now   func() time.Time
}

// NewTracker creates a tracker over s
func NewTracker(s *store.Store, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{store: s, log: log.WithComponent("recovery"), now: time.Now}
}

// OnMessageObserved caches msg so its content survives a later deletion
func (t *Tracker) OnMessageObserved(msg Observed) error {
	at := msg.At
	if at.IsZero() {
		at = t.now()
	}
	sender := msg.Sender
	if sender == "" {
		sender = msg.ChatID
	}

	entry := store.CacheEntry{
		Key:         store.MessageKey(msg.ChatID, msg.MessageID),
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		Content:     msg.Content,
		Sender:      sender,
		Timestamp:   at.Format(TimeLayout),
		MessageType: msg.Type,
	}
	if err := t.store.Put(entry.Key, entry); err != nil {
		return err
	}

	t.log.Debug("Message cached", "key", entry.Key, "preview", preview(entry.Content, 50))
	return nil
}

// OnDeletionObserved looks up the deleted message, removes it from the store
// and reports what it said.
func (t *Tracker) OnDeletionObserved(del Deleted) Recovery {
	at := del.At
	if at.IsZero() {
		at = t.now()
	}
	deletedBy := del.DeletedBy
	if deletedBy == "" {
		deletedBy = del.ChatID
	}

	rec := Recovery{
		Content:   NotCached,
		ChatID:    del.ChatID,
		MessageID: del.MessageID,
		DeletedBy: deletedBy,
		DeletedAt: at.Format(TimeLayout),
	}

	entry, ok := t.store.FindByMessageID(del.MessageID)
	if !ok {
		t.log.Info("No cached message found for deletion", "message_id", del.MessageID, "deleted_by", deletedBy)
		return rec
	}

	t.store.Remove(entry.Key)

	rec.Found = true
	rec.Content = entry.Content
	rec.OriginalSender = entry.Sender
	rec.SentAt = entry.Timestamp
	rec.MessageType = entry.MessageType

	t.log.Info("Recovered deleted message", "key", entry.Key, "deleted_by", deletedBy)
	return rec
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
