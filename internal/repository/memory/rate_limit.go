package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
)

// sweepProbability is the chance, per Increment call, that expired windows
// are pruned from the map. Keeps memory bounded without a background timer.
const sweepProbability = 0.1

type window struct {
	count   int
	resetAt time.Time
}

// RateLimitStore is a fixed-window counter held in process memory. Suitable
// for single-instance deployments; horizontally scaled setups should use the
// Redis-backed store so every replica sees the same counters.
type RateLimitStore struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
	chance  func() float64
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		windows: make(map[string]window),
		now:     time.Now,
		chance:  rand.Float64,
	}
}

// WithClock overrides the time source; used by tests.
func (s *RateLimitStore) WithClock(now func() time.Time) *RateLimitStore {
	s.now = now
	return s
}

// Increment records one hit against key. The first hit of a window fixes its
// reset time; later hits within the window never extend it.
func (s *RateLimitStore) Increment(ctx context.Context, key string, windowSize time.Duration) (int, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{count: 0, resetAt: now.Add(windowSize)}
	}
	w.count++
	s.windows[key] = w

	if s.chance() < sweepProbability {
		s.pruneLocked(now)
	}

	return w.count, w.resetAt, nil
}

func (s *RateLimitStore) pruneLocked(now time.Time) {
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
