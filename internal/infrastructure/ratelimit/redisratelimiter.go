package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the window counter and opens the window on the
// first hit. Returns {count, pttl}.
var incrScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {c, redis.call('PTTL', KEYS[1])}
`)

// RedisRateLimiter is a fixed-window counter shared by every replica.
type RedisRateLimiter struct {
	client *redis.Client
	length time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, length time.Duration) *RedisRateLimiter {
	if length <= 0 {
		length = DefaultWindow
	}
	return &RedisRateLimiter{client: client, length: length, now: time.Now}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int) (*Decision, error) {
	res, err := incrScript.Run(ctx, l.client, []string{l.getKey(key)}, l.length.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to count request: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.length
	}

	return &Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining(limit, count),
		ResetAt:   l.now().Add(ttl),
	}, nil
}

func (l *RedisRateLimiter) getKey(identifier string) string {
	return fmt.Sprintf("ratelimit:%s", identifier)
}
