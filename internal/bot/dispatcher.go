// Package bot turns bridge events into store updates and command replies.
package bot

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"command-bot/backend/internal/alerts"
	"command-bot/backend/internal/content"
	"command-bot/backend/internal/recovery"
	"command-bot/backend/internal/riddle"
	"command-bot/backend/pkg/logger"
	"command-bot/backend/pkg/observability"
)

// Limiter decides whether a sender may run another command
type Limiter interface {
	Allow(key string) bool
}

// Options wires a Dispatcher
type Options struct {
	Prefix   string
	OwnerID  string
	Tracker  *recovery.Tracker
	Game     *riddle.Game
	Notifier *alerts.Notifier
	Limiter  Limiter
	Metrics  *observability.Metrics
	Logger   *logger.Logger
}

type handlerFunc func(ctx context.Context, ev Event, args []string) []Reply

type command struct {
	name    string
	usage   string
	handler handlerFunc
}

// Dispatcher handles bridge events. It is safe for concurrent use.
type Dispatcher struct {
	prefix   string
	ownerID  string
	tracker  *recovery.Tracker
	game     *riddle.Game
	notifier *alerts.Notifier
	limiter  Limiter
	metrics  *observability.Metrics
	tracer   trace.Tracer
	log      *logger.Logger
	now      func() time.Time

	commands []command
	byName   map[string]command
}

// NewDispatcher creates a dispatcher with the built-in commands registered
func NewDispatcher(opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "!"
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = alerts.NewNotifier(log)
	}

	d := &Dispatcher{
		prefix:   prefix,
		ownerID:  opts.OwnerID,
		tracker:  opts.Tracker,
		game:     opts.Game,
		notifier: notifier,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
		tracer:   otel.Tracer("command-bot/bot"),
		log:      log.WithComponent("dispatcher"),
		now:      time.Now,
		byName:   make(map[string]command),
	}
	d.register("help", "List commands", d.help)
	d.register("commands", "List commands", d.help)
	d.register("ping", "Check the bot is alive", d.ping)
	d.register("riddle", "Get a tricky riddle", d.startRiddle)
	d.register("riddlehint", "Hint for the active riddle", d.riddleHint)
	d.register("riddleanswer", "Reveal the active riddle's answer", d.riddleAnswer)
	return d
}

func (d *Dispatcher) register(name, usage string, h handlerFunc) {
	c := command{name: name, usage: usage, handler: h}
	d.commands = append(d.commands, c)
	d.byName[name] = c
}

// Handle processes one event and returns the replies to send
func (d *Dispatcher) Handle(ctx context.Context, ev Event) ([]Reply, error) {
	start := d.now()
	ctx, span := d.tracer.Start(ctx, "bot.Handle", trace.WithAttributes(
		attribute.String("event.type", string(ev.Type)),
		attribute.String("chat.id", ev.ChatID),
	))
	defer span.End()

	if err := ev.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var replies []Reply
	switch ev.Type {
	case EventDeletion:
		replies = d.handleDeletion(ctx, ev)
	case EventMessage:
		replies = d.handleMessage(ctx, ev)
	}

	span.SetAttributes(attribute.Int("replies", len(replies)))
	if d.metrics != nil {
		d.metrics.DispatchDuration.Record(ctx, d.now().Sub(start).Seconds(),
			metric.WithAttributes(attribute.String("event_type", string(ev.Type))))
	}
	return replies, nil
}

func (d *Dispatcher) handleDeletion(ctx context.Context, ev Event) []Reply {
	rec := d.tracker.OnDeletionObserved(recovery.Deleted{
		ChatID:    ev.ChatID,
		MessageID: ev.DeletedMessageID,
		DeletedBy: ev.DeletedBy,
		At:        ev.time(d.now),
	})
	if d.metrics != nil {
		d.metrics.Deletions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", rec.Found)))
	}

	alert := d.notifier.Notify(ctx, rec)
	if d.ownerID == "" {
		return nil
	}
	return []Reply{{ChatID: d.ownerID, Text: alert.Text}}
}

func (d *Dispatcher) handleMessage(ctx context.Context, ev Event) []Reply {
	kind := content.Classify(ev.Raw())

	sender := ev.Sender
	if ev.FromMe {
		sender = ""
	}
	err := d.tracker.OnMessageObserved(recovery.Observed{
		ChatID:    ev.ChatID,
		MessageID: ev.MessageID,
		Content:   content.Describe(kind),
		Sender:    sender,
		Type:      content.TypeOf(kind),
		At:        ev.time(d.now),
	})
	if err != nil {
		d.log.LogError(err, "Failed to cache message", "chat_id", ev.ChatID, "message_id", ev.MessageID)
	} else if d.metrics != nil {
		d.metrics.MessagesCached.Add(ctx, 1)
	}

	body := strings.TrimSpace(content.Body(kind))
	if name, args, ok := d.parseCommand(body); ok {
		cmd, known := d.byName[name]
		if !known {
			return nil
		}
		if !d.allow(ctx, ev, name) {
			return nil
		}
		replies := cmd.handler(ctx, ev, args)
		d.countCommand(ctx, name, len(replies) > 0)
		return replies
	}

	if strings.Contains(ev.QuotedText, RiddlePromptMarker) && body != "" {
		if !d.allow(ctx, ev, "answer") {
			return nil
		}
		return d.riddleAttempt(ctx, ev, body)
	}
	return nil
}

// parseCommand splits "!name arg..." into a lowercase name and its arguments
func (d *Dispatcher) parseCommand(body string) (string, []string, bool) {
	if !strings.HasPrefix(body, d.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(body, d.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (d *Dispatcher) allow(ctx context.Context, ev Event, name string) bool {
	if d.limiter == nil {
		return true
	}
	key := ev.Sender
	if key == "" || ev.FromMe {
		key = ev.ChatID
	}
	if d.limiter.Allow(key) {
		return true
	}
	d.log.Debug("Command rate limited", "sender", key, "command", name)
	if d.metrics != nil {
		d.metrics.CommandsLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("command", name)))
	}
	return false
}

func (d *Dispatcher) countCommand(ctx context.Context, name string, replied bool) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command", name))
	if d.metrics == nil {
		return
	}
	d.metrics.CommandsDispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", name),
		attribute.Bool("replied", replied),
	))
}

func reply(ev Event, text string) []Reply {
	return []Reply{{ChatID: ev.ChatID, Text: text, QuotedMessageID: ev.MessageID}}
}
