package riddle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"command-bot/backend/internal/store"
)

type stubFetcher struct {
	riddle Riddle
	err    error
}

func (s stubFetcher) Fetch(context.Context) (Riddle, error) {
	return s.riddle, s.err
}

func TestMask(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"cat", "c__"},
		{"gold", "g__d"},
		{"a map", "a _a_"},
		{"", ""},
		{"échelle", "é__e__e"},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.answer))
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("42", "The answer is 42"))
	assert.True(t, Matches("A Shadow", "shadow"))
	assert.True(t, Matches("echo", "  ECHO "))
	assert.False(t, Matches("42", "41"))
	assert.False(t, Matches("42", ""))
	assert.False(t, Matches("42", "   "))
}

func TestCheckAnswerFlow(t *testing.T) {
	g := NewGame(store.New(10), nil)

	assert.Equal(t, NoActiveRiddle, g.CheckAnswer("c1", "anything"))

	require.NoError(t, g.Start("c1", "42"))
	assert.Equal(t, Incorrect, g.CheckAnswer("c1", "41"))

	st, ok := g.State("c1")
	require.True(t, ok)
	assert.False(t, st.Solved)

	assert.Equal(t, Correct, g.CheckAnswer("c1", "The answer is 42"))
	st, _ = g.State("c1")
	assert.True(t, st.Solved)

	assert.Equal(t, AlreadySolved, g.CheckAnswer("c1", "nope"))
	assert.Equal(t, Correct, g.CheckAnswer("c1", "42"))
}

func TestStartOverwritesPreviousRiddle(t *testing.T) {
	g := NewGame(store.New(10), nil)
	require.NoError(t, g.Start("c1", "old"))
	_, _ = g.Reveal("c1")

	require.NoError(t, g.Start("c1", "new"))
	st, ok := g.State("c1")
	require.True(t, ok)
	assert.Equal(t, "new", st.Answer)
	assert.False(t, st.Solved)
	assert.Equal(t, Incorrect, g.CheckAnswer("c1", "old"))
}

func TestHint(t *testing.T) {
	g := NewGame(store.New(10), nil)

	_, outcome := g.Hint("c1")
	assert.Equal(t, NoActiveRiddle, outcome)

	require.NoError(t, g.Start("c1", "gold"))
	hint, outcome := g.Hint("c1")
	assert.Equal(t, OK, outcome)
	assert.Equal(t, "g__d", hint)

	_, _ = g.Reveal("c1")
	_, outcome = g.Hint("c1")
	assert.Equal(t, AlreadySolved, outcome)
}

func TestRevealThenCheck(t *testing.T) {
	g := NewGame(store.New(10), nil)

	_, outcome := g.Reveal("c1")
	assert.Equal(t, NoActiveRiddle, outcome)

	require.NoError(t, g.Start("c1", "Echo"))
	answer, outcome := g.Reveal("c1")
	assert.Equal(t, OK, outcome)
	assert.Equal(t, "Echo", answer)

	st, _ := g.State("c1")
	assert.True(t, st.Solved)

	// revealing again still returns the answer
	answer, outcome = g.Reveal("c1")
	assert.Equal(t, OK, outcome)
	assert.Equal(t, "Echo", answer)

	assert.Equal(t, Correct, g.CheckAnswer("c1", "echo"))
	st, _ = g.State("c1")
	assert.True(t, st.Solved)
}

func TestRiddleEvictedWithMessages(t *testing.T) {
	s := store.New(2)
	g := NewGame(s, nil)
	require.NoError(t, g.Start("c1", "cat"))
	require.NoError(t, s.Put("a", "x"))
	require.NoError(t, s.Put("b", "y"))

	assert.Equal(t, NoActiveRiddle, g.CheckAnswer("c1", "cat"))
}

func TestRequest(t *testing.T) {
	s := store.New(10)
	g := NewGame(s, stubFetcher{riddle: Riddle{Question: "What has keys?", Answer: "A piano"}})

	r, err := g.Request(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "What has keys?", r.Question)

	st, ok := g.State("c1")
	require.True(t, ok)
	assert.Equal(t, "A piano", st.Answer)
	assert.NotZero(t, st.CreatedAt)
}

func TestRequestFailureWritesNothing(t *testing.T) {
	s := store.New(10)
	g := NewGame(s, stubFetcher{err: errors.Join(ErrFetch, errors.New("boom"))})

	_, err := g.Request(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, 0, s.Len())

	_, err = NewGame(s, nil).Request(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "correct", Correct.String())
	assert.Equal(t, "already_solved", AlreadySolved.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
