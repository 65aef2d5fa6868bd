// Package dedup tracks which platform-native message IDs have already been handled,
// so that a message re-discovered by a later scan is never emitted twice
package dedup

import "sync"

// Store is a set of message IDs. IDs are never removed: a Store lives for exactly one
// ingestion session.
type Store struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		seen: make(map[string]struct{}),
	}
}

// Seen returns true if the given ID has been marked as seen
func (s *Store) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]
	return ok
}

// MarkSeen records the given ID as seen
func (s *Store) MarkSeen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[id] = struct{}{}
}

// Admit marks the given ID as seen and returns true if it hadn't been seen before;
// of any number of concurrent calls with the same ID, exactly one returns true
func (s *Store) Admit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Len returns the number of IDs seen so far
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}
