package memory

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitStore_FixedWindowCounting(t *testing.T) {
	current := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	store := NewRateLimitStore().WithClock(func() time.Time { return current })

	windowSize := time.Minute
	wantReset := current.Add(windowSize)

	for i := 1; i <= 6; i++ {
		count, resetAt, err := store.Increment(context.Background(), "ip:203.0.113.7", windowSize)
		if err != nil {
			t.Fatalf("Increment %d returned error: %v", i, err)
		}
		if count != i {
			t.Fatalf("Increment %d: count = %d, want %d", i, count, i)
		}
		if !resetAt.Equal(wantReset) {
			t.Fatalf("Increment %d: resetAt = %v, want %v (window must not slide)", i, resetAt, wantReset)
		}
		current = current.Add(5 * time.Second)
	}
}

func TestRateLimitStore_WindowExpiryResetsCount(t *testing.T) {
	current := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	store := NewRateLimitStore().WithClock(func() time.Time { return current })

	for i := 0; i < 5; i++ {
		if _, _, err := store.Increment(context.Background(), "email:user@example.com", time.Minute); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}

	current = current.Add(time.Minute)

	count, resetAt, err := store.Increment(context.Background(), "email:user@example.com", time.Minute)
	if err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after window expiry = %d, want 1", count)
	}
	if !resetAt.Equal(current.Add(time.Minute)) {
		t.Fatalf("new window resetAt = %v, want %v", resetAt, current.Add(time.Minute))
	}
}

func TestRateLimitStore_IndependentKeys(t *testing.T) {
	store := NewRateLimitStore()

	for i := 0; i < 3; i++ {
		if _, _, err := store.Increment(context.Background(), "ip:198.51.100.1", time.Minute); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}

	count, _, err := store.Increment(context.Background(), "ip:198.51.100.2", time.Minute)
	if err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count for fresh key = %d, want 1", count)
	}
}

func TestRateLimitStore_PruneDropsExpiredWindows(t *testing.T) {
	current := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	store := NewRateLimitStore().WithClock(func() time.Time { return current })
	store.chance = func() float64 { return 0 } // always prune

	if _, _, err := store.Increment(context.Background(), "ip:stale", time.Minute); err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if _, _, err := store.Increment(context.Background(), "ip:fresh", time.Minute); err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}

	store.mu.Lock()
	_, staleKept := store.windows["ip:stale"]
	store.mu.Unlock()
	if staleKept {
		t.Fatal("expected expired window to be pruned")
	}
}
