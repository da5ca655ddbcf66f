package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(chatID, messageID, content string) CacheEntry {
	return CacheEntry{
		Key:         MessageKey(chatID, messageID),
		ChatID:      chatID,
		MessageID:   messageID,
		Content:     content,
		Sender:      chatID,
		MessageType: TypeConversation,
	}
}

func TestPutGetRemove(t *testing.T) {
	s := New(10)
	e := message("chat", "m1", "hello")

	require.NoError(t, s.Put(e.Key, e))

	got, ok := s.Get(e.Key)
	require.True(t, ok)
	assert.Equal(t, e, got)

	assert.True(t, s.Remove(e.Key))
	_, ok = s.Get(e.Key)
	assert.False(t, ok)

	// removing again is a no-op
	assert.False(t, s.Remove(e.Key))
}

func TestPutRejectsEmptyKey(t *testing.T) {
	s := New(10)

	assert.ErrorIs(t, s.Put("", "x"), ErrEmptyKey)
	assert.Equal(t, 0, s.Len())
}

func TestNeverExceedsCapacity(t *testing.T) {
	s := New(7)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Put(fmt.Sprintf("k%d", i%13), i))
		assert.LessOrEqual(t, s.Len(), 7)
	}
}

func TestEvictsFirstInsertedAtCapacity(t *testing.T) {
	s := New(100)
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Put(fmt.Sprintf("k%d", i), i))
	}
	require.Equal(t, 100, s.Len())

	require.NoError(t, s.Put("k100", 100))

	assert.Equal(t, 100, s.Len())
	_, ok := s.Get("k0")
	assert.False(t, ok, "first inserted key should be evicted")
	_, ok = s.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), s.Stats().Evictions)
}

func TestOverwriteDoesNotRefreshOrder(t *testing.T) {
	s := New(3)
	require.NoError(t, s.Put("a", 1))
	require.NoError(t, s.Put("b", 2))
	require.NoError(t, s.Put("c", 3))

	// overwrite the oldest key, it must still be the next to go
	require.NoError(t, s.Put("a", 10))
	assert.Equal(t, 3, s.Len())

	require.NoError(t, s.Put("d", 4))

	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b", "c", "d"}, s.Keys())
}

func TestUpdateKeepsEvictionAge(t *testing.T) {
	s := New(2)
	key := RiddleKey("chat")
	require.NoError(t, s.Put(key, RiddleState{Answer: "42"}))
	require.NoError(t, s.Put("other", 1))

	ok := s.Update(key, func(v any) any {
		st := v.(RiddleState)
		st.Solved = true
		return st
	})
	require.True(t, ok)

	got, _ := s.Get(key)
	assert.True(t, got.(RiddleState).Solved)

	require.NoError(t, s.Put("newest", 2))
	_, ok = s.Get(key)
	assert.False(t, ok, "updated record keeps its original age")

	assert.False(t, s.Update("missing", func(v any) any { return v }))
}

func TestRiddleAndMessagesShareBound(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Put(RiddleKey("chat"), RiddleState{Answer: "egg"}))
	m1 := message("chat", "m1", "one")
	m2 := message("chat", "m2", "two")
	require.NoError(t, s.Put(m1.Key, m1))
	require.NoError(t, s.Put(m2.Key, m2))

	_, ok := s.Get(RiddleKey("chat"))
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestFindByMessageID(t *testing.T) {
	s := New(10)
	a := message("chat-a", "abc", "first")
	b := message("chat-b", "xyz", "second")
	require.NoError(t, s.Put(a.Key, a))
	require.NoError(t, s.Put(b.Key, b))
	require.NoError(t, s.Put(RiddleKey("chat-a"), RiddleState{Answer: "xyz"}))

	got, ok := s.FindByMessageID("xyz")
	require.True(t, ok)
	assert.Equal(t, "second", got.Content)

	_, ok = s.FindByMessageID("nope")
	assert.False(t, ok)

	// ids are compared exactly, not by substring
	_, ok = s.FindByMessageID("ab")
	assert.False(t, ok)

	_, ok = s.FindByMessageID("")
	assert.False(t, ok)
}

func TestFindByMessageIDReturnsFirstInserted(t *testing.T) {
	s := New(10)
	older := message("chat-a", "dup", "older")
	newer := message("chat-b", "dup", "newer")
	require.NoError(t, s.Put(older.Key, older))
	require.NoError(t, s.Put(newer.Key, newer))

	got, ok := s.FindByMessageID("dup")
	require.True(t, ok)
	assert.Equal(t, "older", got.Content)
}

func TestOnEvictedCallback(t *testing.T) {
	s := New(1)
	var evicted []string
	s.SetOnEvicted(func(key string, _ any) {
		evicted = append(evicted, key)
	})

	require.NoError(t, s.Put("a", 1))
	require.NoError(t, s.Put("b", 2))
	s.Remove("b")

	assert.Equal(t, []string{"a"}, evicted)
}

func TestConcurrentAccess(t *testing.T) {
	s := New(50)
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				e := message(fmt.Sprintf("c%d", w), fmt.Sprintf("m%d", i), "x")
				_ = s.Put(e.Key, e)
				s.FindByMessageID(e.MessageID)
				s.Get(e.Key)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	assert.Equal(t, "Store(len=50, cap=50)", s.String())
}

func TestMessageKeyIsUnambiguous(t *testing.T) {
	assert.Equal(t, "group@g.us_3EB0", MessageKey("group@g.us", "3EB0"))
	assert.NotEqual(t, MessageKey("a_b", "c"), MessageKey("a", "b_c"))
	assert.NotEqual(t, MessageKey("a_", "x"), MessageKey("a", "__x"))
	assert.NotEqual(t, MessageKey("a%5F", "x"), MessageKey("a_", "x"))

	s := New(10)
	first := message("a_b", "c", "first")
	second := message("a", "b_c", "second")
	require.NoError(t, s.Put(first.Key, first))
	require.NoError(t, s.Put(second.Key, second))
	assert.Equal(t, 2, s.Len())
}
