package bot

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"command-bot/backend/internal/riddle"
)

func (d *Dispatcher) help(_ context.Context, ev Event, _ []string) []Reply {
	return reply(ev, helpText(d.prefix, d.commands))
}

func (d *Dispatcher) ping(_ context.Context, ev Event, _ []string) []Reply {
	return reply(ev, pongText)
}

func (d *Dispatcher) startRiddle(ctx context.Context, ev Event, _ []string) []Reply {
	r, err := d.game.Request(ctx, ev.ChatID)
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		d.log.LogError(err, "Failed to start riddle", "chat_id", ev.ChatID)
		if d.metrics != nil {
			d.metrics.RiddleFetchErrors.Add(ctx, 1)
		}
		return reply(ev, fetchFailedText)
	}
	return reply(ev, riddlePrompt(r.Question))
}

func (d *Dispatcher) riddleHint(_ context.Context, ev Event, _ []string) []Reply {
	mask, outcome := d.game.Hint(ev.ChatID)
	switch outcome {
	case riddle.OK:
		return reply(ev, hintText(mask))
	case riddle.AlreadySolved:
		return reply(ev, solvedText(d.prefix))
	default:
		return reply(ev, noHintText(d.prefix))
	}
}

func (d *Dispatcher) riddleAnswer(_ context.Context, ev Event, _ []string) []Reply {
	answer, outcome := d.game.Reveal(ev.ChatID)
	if outcome != riddle.OK {
		return reply(ev, noRiddleText(d.prefix))
	}
	return reply(ev, revealText(answer))
}

// riddleAttempt checks a reply to a riddle prompt. Nothing is said when the
// conversation has no riddle or it is already solved.
func (d *Dispatcher) riddleAttempt(ctx context.Context, ev Event, candidate string) []Reply {
	st, ok := d.game.State(ev.ChatID)
	if !ok || st.Solved {
		return nil
	}

	outcome := d.game.CheckAnswer(ev.ChatID, candidate)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("riddle.outcome", outcome.String()))
	d.countCommand(ctx, "answer", outcome == riddle.Correct || outcome == riddle.Incorrect)

	switch outcome {
	case riddle.Correct:
		return reply(ev, correctText(st.Answer))
	case riddle.Incorrect:
		return reply(ev, incorrectText(d.prefix))
	default:
		return nil
	}
}
