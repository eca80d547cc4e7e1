package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps hit timestamps in process memory. Suitable for a single
// instance deployment and for tests.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

func (s *MemoryStore) Count(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.prune(key, window)
	if len(live) == 0 {
		return 0, time.Time{}, nil
	}
	return len(live), live[0], nil
}

func (s *MemoryStore) Record(_ context.Context, key string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[key] = append(s.prune(key, window), s.now())
	return nil
}

// prune drops expired hits in place; caller holds the lock.
func (s *MemoryStore) prune(key string, window time.Duration) []time.Time {
	cutoff := s.now().Add(-window)
	live := s.hits[key][:0]
	for _, ts := range s.hits[key] {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	if len(live) == 0 {
		delete(s.hits, key)
		return nil
	}
	s.hits[key] = live
	return live
}
