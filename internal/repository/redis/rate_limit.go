package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
)

// RateLimitStore is a fixed-window counter shared across replicas through
// Redis. INCR opens the window on the first hit and PEXPIRE pins its reset
// time; the remaining TTL reconstructs resetAt for later hits, so the window
// never slides.
type RateLimitStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRateLimitStore(client *redis.Client, prefix string) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *RateLimitStore) WithClock(now func() time.Time) *RateLimitStore {
	s.now = now
	return s
}

func (s *RateLimitStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	redisKey := s.key(key)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("set rate limit window: %w", err)
		}
		return int(count), s.now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("read rate limit window: %w", err)
	}
	if ttl < 0 {
		// Counter survived without an expiry, likely an interrupted first
		// hit. Re-pin the window rather than leaving the key immortal.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("repair rate limit window: %w", err)
		}
		ttl = window
	}

	return int(count), s.now().Add(ttl), nil
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
