package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int64
}

// MemoryRateLimiter keeps counters in process memory. Counters are not
// shared between replicas.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	length  time.Duration
	now     func() time.Time
}

func NewMemoryRateLimiter(length time.Duration) *MemoryRateLimiter {
	if length <= 0 {
		length = DefaultWindow
	}
	return &MemoryRateLimiter{
		windows: make(map[string]*window),
		length:  length,
		now:     time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(ctx context.Context, key string, limit int) (*Decision, error) {
	now := l.now()

	l.mu.Lock()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.length {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	count, start := w.count, w.start
	l.mu.Unlock()

	return &Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining(limit, count),
		ResetAt:   start.Add(l.length),
	}, nil
}

// Sweep drops windows that have closed.
func (l *MemoryRateLimiter) Sweep(ctx context.Context) (int, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.length {
			delete(l.windows, key)
			removed++
		}
	}
	return removed, nil
}
