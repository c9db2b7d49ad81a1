package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

// MemoryStore keeps hit timestamps in process memory. Entries live for the
// life of the server process and are not shared across instances; that is a
// known limitation of the default deployment, not a defect.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[string][]time.Time)}
}

// Count prunes timestamps older than since and returns how many remain.
func (s *MemoryStore) Count(_ context.Context, key string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := lo.Filter(s.hits[key], func(t time.Time, _ int) bool {
		return t.After(since)
	})
	if len(recent) == 0 {
		delete(s.hits, key)
	} else {
		s.hits[key] = recent
	}
	return len(recent), nil
}

// Record appends a hit for key.
func (s *MemoryStore) Record(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[key] = append(s.hits[key], at)
	return nil
}
