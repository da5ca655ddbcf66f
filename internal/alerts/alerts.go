// Package alerts turns recovered deletions into owner notifications and
// fans them out to optional sinks.
package alerts

import (
	"context"
	"fmt"
	"time"

	"command-bot/backend/internal/recovery"
	"command-bot/backend/pkg/logger"
)

// Alert is a deletion event ready for delivery
type Alert struct {
	recovery.Recovery
	Text       string    `json:"text"`
	ObservedAt time.Time `json:"observed_at"`
}

// Sink receives alerts. Delivery is best effort.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, alert Alert) error
}

// Format renders the human readable alert sent to the owner
func Format(rec recovery.Recovery) string {
	return fmt.Sprintf("🕵️‍♂️ *Deleted Message Alert!*\n"+
		"👤 *Deleted By:* %s\n"+
		"🕰️ *Time:* %s\n"+
		"📍 *Chat:* %s\n"+
		"📝 *Content:* %s",
		rec.DeletedBy, rec.DeletedAt, rec.ChatID, rec.Content)
}

// Notifier builds alerts and hands them to every sink
type Notifier struct {
	sinks []Sink
	log   *logger.Logger
	now   func() time.Time
}

// NewNotifier creates a notifier. Nil sinks are skipped.
func NewNotifier(log *logger.Logger, sinks ...Sink) *Notifier {
	if log == nil {
		log = logger.NewNop()
	}
	n := &Notifier{log: log.WithComponent("alerts"), now: time.Now}
	for _, s := range sinks {
		if s != nil {
			n.sinks = append(n.sinks, s)
		}
	}
	return n
}

// Add registers another sink
func (n *Notifier) Add(s Sink) {
	if s != nil {
		n.sinks = append(n.sinks, s)
	}
}

// Notify builds the alert for rec and delivers it. Sink failures are logged
// and never returned.
func (n *Notifier) Notify(ctx context.Context, rec recovery.Recovery) Alert {
	alert := Alert{Recovery: rec, Text: Format(rec), ObservedAt: n.now()}
	for _, s := range n.sinks {
		if err := s.Deliver(ctx, alert); err != nil {
			n.log.LogError(err, "Failed to deliver deletion alert",
				"sink", s.Name(),
				"chat_id", rec.ChatID,
				"message_id", rec.MessageID,
			)
		}
	}
	return alert
}
