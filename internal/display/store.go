package display

import (
	"slices"
	"sync"

	"prettybuild/internal/progress"
)

// queueCapacity is the initial capacity of every per-item event queue.
const queueCapacity = 10

// Store holds the per-item state shared between producers and the render
// goroutine: insertion-ordered keys, a FIFO of pending events per key, the
// last folded snapshot per key and the set of retired keys.
//
// Producers only enqueue. Popping, storing snapshots and retiring are done by
// the single goroutine that renders.
type Store struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*entry
}

type entry struct {
	queue   []progress.Event
	last    *progress.Snapshot
	retired bool
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// entryLocked returns the entry for key, creating it at the end of the key
// order on first use. Caller must hold s.mu.
func (s *Store) entryLocked(key string) (*entry, bool) {
	if e, ok := s.entries[key]; ok {
		return e, false
	}
	e := &entry{queue: make([]progress.Event, 0, queueCapacity)}
	s.entries[key] = e
	s.order = append(s.order, key)
	return e, true
}

// Seed enqueues a Planned event for every item not seen before.
func (s *Store) Seed(items ...progress.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if e, created := s.entryLocked(item.ID); created {
			e.queue = append(e.queue, progress.Planning(item))
		}
	}
}

// Enqueue appends ev to its item's queue. It reports false when the item is
// already retired and the event was dropped.
func (s *Store) Enqueue(ev progress.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _ := s.entryLocked(ev.Item.ID)
	if e.retired {
		return false
	}
	e.queue = append(e.queue, ev)
	return true
}

// Keys returns every key in first-insertion order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Pop removes the oldest pending event of key.
func (s *Store) Pop(key string) (progress.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || len(e.queue) == 0 {
		return progress.Event{}, false
	}
	ev := e.queue[0]
	e.queue[0] = progress.Event{}
	e.queue = e.queue[1:]
	return ev, true
}

// pending returns the number of queued events for key.
func (s *Store) pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return len(e.queue)
	}
	return 0
}

// Last returns the most recent snapshot of key, or nil before the first one.
func (s *Store) Last(key string) *progress.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return e.last
	}
	return nil
}

// Put records snap as the latest snapshot of key.
func (s *Store) Put(key string, snap progress.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _ := s.entryLocked(key)
	e.last = &snap
}

// Retire marks key as settled and rendered. Later events for it are dropped
// on enqueue and its pending queue is discarded. A key is only retired once
// it has a snapshot.
func (s *Store) Retire(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _ := s.entryLocked(key)
	e.retired = true
	e.queue = nil
}

// Retired reports whether key has been retired.
func (s *Store) Retired(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && e.retired
}
