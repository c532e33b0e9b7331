package port

import (
	"context"
	"time"
)

// RateLimitStore counts attempts inside fixed windows. The first increment
// for a key opens a window ending at resetAt; subsequent increments within
// the window bump the count without moving resetAt. An entry whose window
// has passed is treated as absent.
//
// Implementations may be process-local or backed by a shared store; the
// limiter's contract is identical either way.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}
