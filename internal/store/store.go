// Package store holds the bounded, insertion-ordered ephemeral state of the
// bot: recently observed messages and per-conversation riddle records. Both
// kinds share one capacity and are evicted oldest-first by first insertion.
package store

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyKey is returned by Put when the key is empty
var ErrEmptyKey = errors.New("store: key must not be empty")

type item struct {
	key   string
	value any
}

// Stats is a point-in-time view of the store
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Evictions uint64 `json:"evictions"`
}

// Store is a fixed-size FIFO map. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	maxSize   int
	order     *list.List
	index     map[string]*list.Element
	evictions uint64
	onEvicted func(key string, value any)
}

// New returns an empty store bounded to maxSize records
func New(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Store{
		maxSize: maxSize,
		order:   list.New(),
		index:   make(map[string]*list.Element, maxSize+1),
	}
}

// SetOnEvicted registers a callback run after a record is evicted for capacity.
// It is not called for Remove.
func (s *Store) SetOnEvicted(f func(key string, value any)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onEvicted = f
}

// Put inserts or overwrites the record at key. Overwriting keeps the record's
// original insertion position. If the store grows past its bound the oldest
// record is evicted.
func (s *Store) Put(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	if el, ok := s.index[key]; ok {
		el.Value.(*item).value = value
		s.mu.Unlock()
		return nil
	}

	s.index[key] = s.order.PushBack(&item{key: key, value: value})

	var evicted *item
	if s.order.Len() > s.maxSize {
		oldest := s.order.Front()
		evicted = oldest.Value.(*item)
		s.order.Remove(oldest)
		delete(s.index, evicted.key)
		s.evictions++
	}
	onEvicted := s.onEvicted
	s.mu.Unlock()

	if evicted != nil && onEvicted != nil {
		onEvicted(evicted.key, evicted.value)
	}
	return nil
}

// Get returns the record at key
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*item).value, true
}

// Update replaces the record at key with fn's result without touching its
// eviction age. It reports false when key is absent.
func (s *Store) Update(key string, fn func(value any) any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		return false
	}
	it := el.Value.(*item)
	it.value = fn(it.value)
	return true
}

// Remove deletes the record at key. Absent keys are ignored.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.index, key)
	return true
}

// FindByMessageID scans message records in insertion order and returns the
// first whose message id equals messageID.
func (s *Store) FindByMessageID(messageID string) (CacheEntry, bool) {
	if messageID == "" {
		return CacheEntry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for el := s.order.Front(); el != nil; el = el.Next() {
		entry, ok := el.Value.(*item).value.(CacheEntry)
		if ok && entry.MessageID == messageID {
			return entry, true
		}
	}
	return CacheEntry{}, false
}

// Len returns the number of records held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.order.Len()
}

// Keys returns the keys oldest first
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*item).key)
	}
	return keys
}

// Stats returns size, capacity and the number of evictions so far
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{Size: s.order.Len(), Capacity: s.maxSize, Evictions: s.evictions}
}

// String implements fmt.Stringer
func (s *Store) String() string {
	st := s.Stats()
	return fmt.Sprintf("Store(len=%d, cap=%d)", st.Size, st.Capacity)
}
