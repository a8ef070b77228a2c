package attempt

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Admit applies one attempt to key under the store mutex.
func (s *MemoryStore) Admit(_ context.Context, key string, now time.Time, max int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	next, d := advance(rec, ok, now, max, window)
	if d.Allowed {
		s.records[key] = next
	}
	return d, nil
}

// Get returns the record for key, expired or not.
func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	return rec, ok, nil
}

// Delete removes the record for key. Missing keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Prune removes records whose last attempt is older than window.
func (s *MemoryStore) Prune(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, rec := range s.records {
		if expired(rec, now, window) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored records, live or expired.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
