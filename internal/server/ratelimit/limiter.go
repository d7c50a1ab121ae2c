// Package ratelimit implements fixed-window counters used to throttle login
// attempts, backed by Redis or by process memory.
package ratelimit

import (
	"context"
	"time"
)

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	// Allow records a hit for key and reports whether it is within limit.
	// When it is not, retryAfter is the time left in the current window.
	Allow(ctx context.Context, key string, limit int) (allowed bool, retryAfter time.Duration, err error)
	// Reset forgets all hits for key.
	Reset(ctx context.Context, key string) error
}
