package synclimit

import (
	"sync"
	"time"
)

// Store holds the last trigger instant per throttle key.
//
// Implementations only need per-operation safety. The limiter performs its
// read and its write as two separate calls, so two callers can both observe a
// stale entry and both fire.
type Store interface {
	Get(key string) (time.Time, bool)
	Set(key string, at time.Time)
	Snapshot() map[string]time.Time
	Clear()
}

// MemoryStore is a process-local Store. Entries live until Clear is called or
// the process exits; they are not shared across instances.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.entries[key]
	return at, ok
}

// Set implements Store.
func (s *MemoryStore) Set(key string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = at
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Clear implements Store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]time.Time)
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
