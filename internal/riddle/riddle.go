// Package riddle implements the per-conversation question/answer game whose
// state lives in the shared ephemeral store.
package riddle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"command-bot/backend/internal/store"
)

// Outcome is the result of a riddle operation
type Outcome int

const (
	// NoActiveRiddle means the conversation has no riddle record
	NoActiveRiddle Outcome = iota
	// Correct means the candidate matched the answer
	Correct
	// Incorrect means the candidate did not match
	Incorrect
	// AlreadySolved means the riddle was answered or revealed before
	AlreadySolved
	// OK means a hint or reveal was produced
	OK
)

func (o Outcome) String() string {
	switch o {
	case NoActiveRiddle:
		return "no_active_riddle"
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case AlreadySolved:
		return "already_solved"
	case OK:
		return "ok"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MaskGlyph replaces hidden characters in a hint
const MaskGlyph = '_'

// Game runs riddles on top of a store
type Game struct {
	store   *store.Store
	fetcher Fetcher
	now     func() time.Time
}

// NewGame creates a game over s. fetcher may be nil when riddles are only
// started with known answers.
func NewGame(s *store.Store, fetcher Fetcher) *Game {
	return &Game{store: s, fetcher: fetcher, now: time.Now}
}

// Request fetches a riddle and starts it for chatID. Nothing is stored when
// the fetch fails.
func (g *Game) Request(ctx context.Context, chatID string) (Riddle, error) {
	if g.fetcher == nil {
		return Riddle{}, fmt.Errorf("%w: no riddle provider configured", ErrFetch)
	}
	r, err := g.fetcher.Fetch(ctx)
	if err != nil {
		return Riddle{}, err
	}
	if err := g.Start(chatID, r.Answer); err != nil {
		return Riddle{}, err
	}
	return r, nil
}

// Start creates or overwrites the riddle of chatID, discarding any prior one
func (g *Game) Start(chatID, answer string) error {
	return g.store.Put(store.RiddleKey(chatID), store.RiddleState{
		Answer:    answer,
		CreatedAt: g.now().Unix(),
		Solved:    false,
	})
}

// State returns the riddle record of chatID
func (g *Game) State(chatID string) (store.RiddleState, bool) {
	v, ok := g.store.Get(store.RiddleKey(chatID))
	if !ok {
		return store.RiddleState{}, false
	}
	st, ok := v.(store.RiddleState)
	return st, ok
}

// CheckAnswer compares candidate against the stored answer. A match in either
// direction of lowercase substring containment is correct and marks the
// riddle solved. On an already solved riddle a match still reports Correct
// and anything else reports AlreadySolved; neither changes state.
func (g *Game) CheckAnswer(chatID, candidate string) Outcome {
	st, ok := g.State(chatID)
	if !ok {
		return NoActiveRiddle
	}

	matched := Matches(st.Answer, candidate)
	if st.Solved {
		if matched {
			return Correct
		}
		return AlreadySolved
	}
	if !matched {
		return Incorrect
	}

	g.markSolved(chatID)
	return Correct
}

// Hint returns the masked answer of an unsolved riddle
func (g *Game) Hint(chatID string) (string, Outcome) {
	st, ok := g.State(chatID)
	if !ok {
		return "", NoActiveRiddle
	}
	if st.Solved {
		return "", AlreadySolved
	}
	return Mask(st.Answer), OK
}

// Reveal returns the answer and marks the riddle solved whatever its state
func (g *Game) Reveal(chatID string) (string, Outcome) {
	st, ok := g.State(chatID)
	if !ok {
		return "", NoActiveRiddle
	}
	g.markSolved(chatID)
	return st.Answer, OK
}

func (g *Game) markSolved(chatID string) {
	g.store.Update(store.RiddleKey(chatID), func(v any) any {
		st, ok := v.(store.RiddleState)
		if !ok {
			return v
		}
		st.Solved = true
		return st
	})
}

// Matches reports whether candidate and answer contain one another, ignoring
// case and surrounding blanks. An empty candidate never matches.
func Matches(answer, candidate string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" || a == "" {
		return false
	}
	return strings.Contains(a, c) || strings.Contains(c, a)
}

// Mask keeps spaces and every character whose index is a multiple of three,
// hiding the rest behind MaskGlyph.
func Mask(answer string) string {
	var b strings.Builder
	for i, r := range []rune(answer) {
		switch {
		case r == ' ':
			b.WriteRune(' ')
		case i%3 == 0:
			b.WriteRune(r)
		default:
			b.WriteRune(MaskGlyph)
		}
	}
	return b.String()
}
