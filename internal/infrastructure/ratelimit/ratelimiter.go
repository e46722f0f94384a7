// Package ratelimit counts requests per identity in fixed windows that open
// on the first request seen for that identity.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the length of one counting window.
const DefaultWindow = time.Minute

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window closes.
	ResetAt time.Time
}

// RetryAfter is the time left until the window closes, never negative.
func (d *Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// RateLimiter counts one request against key and reports whether it fits in
// limit for the current window. The limit is supplied per call so a changed
// setting applies as soon as it is read.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int) (*Decision, error)
}

func remaining(limit int, count int64) int {
	if r := int64(limit) - count; r > 0 {
		return int(r)
	}
	return 0
}
