package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/pkg/jobs"
)

// MemoryStore keeps records in process memory. State is lost on restart and
// is not shared between replicas; use RedisStore when running more than one.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, policy Policy, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *Record
	if rec, ok := s.records[key]; ok {
		current = &rec
	}
	next, res := apply(current, policy, now)
	s.records[key] = next
	return res, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops records whose window and block have both elapsed and returns
// how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, rec := range s.records {
		if rec.Stale(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// SweepTask wraps Sweep as a scheduler task.
func SweepTask(store *MemoryStore, interval time.Duration, logger *zap.Logger) jobs.Task {
	if logger == nil {
		logger = zap.NewNop()
	}
	return jobs.Task{
		Name:     "ratelimit_sweep",
		Interval: interval,
		Run: func(context.Context) error {
			if removed := store.Sweep(time.Now()); removed > 0 {
				logger.Debug("rate limit records swept", zap.Int("removed", removed), zap.Int("remaining", store.Len()))
			}
			return nil
		},
	}
}
