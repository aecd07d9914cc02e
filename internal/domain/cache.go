package domain

import (
	"context"
	"time"
)

// RateLimiter bounds request rates for a keyed caller.
type RateLimiter interface {
	// Allow reports whether one more request under key fits inside the
	// window, counting it when it does.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventHistory is implemented by buses that retain a tail of recently
// published events (the Redis-backed bus does, the in-process one does not).
type EventHistory interface {
	// RecentEvents returns up to limit events, oldest first.
	RecentEvents(ctx context.Context, limit int) ([]Event, error)
}
