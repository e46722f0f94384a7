package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exhaust(t *testing.T, limiter RateLimiter, key string, n, limit int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		d, err := limiter.Allow(ctx, key, limit)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should be allowed", i+1)
	}
}

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(time.Minute)
	limiter.now = func() time.Time { return now }

	t.Run("61st request in window is rejected", func(t *testing.T) {
		exhaust(t, limiter, "k1", 60, 60)

		d, err := limiter.Allow(ctx, "k1", 60)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, time.Minute, d.RetryAfter(now))
	})

	t.Run("identities are independent", func(t *testing.T) {
		d, err := limiter.Allow(ctx, "k2", 60)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 59, d.Remaining)
	})

	t.Run("window opens at first request", func(t *testing.T) {
		now = now.Add(59 * time.Second)
		d, err := limiter.Allow(ctx, "k1", 60)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, time.Second, d.RetryAfter(now))

		now = now.Add(time.Second)
		d, err = limiter.Allow(ctx, "k1", 60)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 59, d.Remaining)
	})

	t.Run("limit change applies immediately", func(t *testing.T) {
		d, err := limiter.Allow(ctx, "k1", 2)
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = limiter.Allow(ctx, "k1", 2)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})

	t.Run("sweep drops closed windows", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		removed, err := limiter.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
	})
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	limiter := NewRedisRateLimiter(client, time.Minute)

	exhaust(t, limiter, "key:1.2.3.4", 60, 60)

	d, err := limiter.Allow(ctx, "key:1.2.3.4", 60)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 60, d.Limit)
	assert.Equal(t, 0, d.Remaining)
	assert.True(t, d.RetryAfter(time.Now()) > 0)

	other, err := limiter.Allow(ctx, "key:5.6.7.8", 60)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	mr.FastForward(61 * time.Second)

	d, err = limiter.Allow(ctx, "key:1.2.3.4", 60)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 59, d.Remaining)
}
