package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licensegate/licensegate/internal/domain/nonce"
)

func setupMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// storeCases runs the shared contract against both backends.
func storeCases(t *testing.T) map[string]func(t *testing.T, c *clock) nonce.Store {
	return map[string]func(t *testing.T, c *clock) nonce.Store{
		"memory": func(t *testing.T, c *clock) nonce.Store {
			s := NewMemoryNonceStore(5 * time.Minute)
			s.now = c.Now
			return s
		},
		"redis": func(t *testing.T, c *clock) nonce.Store {
			s := NewRedisNonceStore(setupMiniRedis(t), 5*time.Minute)
			s.now = c.Now
			return s
		},
	}
}

func TestNonceStore_Contract(t *testing.T) {
	for name, build := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("issue returns 256 bit hex", func(t *testing.T) {
				s := build(t, newClock())
				n, err := s.Issue(ctx)
				require.NoError(t, err)
				assert.Len(t, n.Value, 64)
				assert.Regexp(t, "^[0-9a-f]{64}$", n.Value)
				assert.Equal(t, 5*time.Minute, n.ExpiresAt.Sub(n.IssuedAt))
			})

			t.Run("single use", func(t *testing.T) {
				s := build(t, newClock())
				n, err := s.Issue(ctx)
				require.NoError(t, err)

				require.NoError(t, s.Consume(ctx, n.Value))
				assert.ErrorIs(t, s.Consume(ctx, n.Value), nonce.ErrNonceAlreadyUsed)
			})

			t.Run("unknown value", func(t *testing.T) {
				s := build(t, newClock())
				assert.ErrorIs(t, s.Consume(ctx, "deadbeef"), nonce.ErrNonceNotFound)
			})

			t.Run("expired after ttl", func(t *testing.T) {
				c := newClock()
				s := build(t, c)
				n, err := s.Issue(ctx)
				require.NoError(t, err)

				c.Advance(5*time.Minute + time.Second)
				assert.ErrorIs(t, s.Consume(ctx, n.Value), nonce.ErrNonceExpired)
			})

			t.Run("still valid just inside ttl", func(t *testing.T) {
				c := newClock()
				s := build(t, c)
				n, err := s.Issue(ctx)
				require.NoError(t, err)

				c.Advance(4*time.Minute + 59*time.Second)
				assert.NoError(t, s.Consume(ctx, n.Value))
			})

			t.Run("concurrent consumers", func(t *testing.T) {
				s := build(t, newClock())
				n, err := s.Issue(ctx)
				require.NoError(t, err)

				const consumers = 32
				var (
					wg    sync.WaitGroup
					ok    atomic.Int32
					used  atomic.Int32
					start = make(chan struct{})
				)
				for i := 0; i < consumers; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						<-start
						switch err := s.Consume(ctx, n.Value); {
						case err == nil:
							ok.Add(1)
						case assert.ErrorIs(t, err, nonce.ErrNonceAlreadyUsed):
							used.Add(1)
						}
					}()
				}
				close(start)
				wg.Wait()

				assert.Equal(t, int32(1), ok.Load())
				assert.Equal(t, int32(consumers-1), used.Load())
			})
		})
	}
}

func TestMemoryNonceStore_Sweep(t *testing.T) {
	c := newClock()
	s := NewMemoryNonceStore(5 * time.Minute)
	s.now = c.Now
	ctx := context.Background()

	old, err := s.Issue(ctx)
	require.NoError(t, err)
	c.Advance(3 * time.Minute)
	fresh, err := s.Issue(ctx)
	require.NoError(t, err)
	c.Advance(3 * time.Minute)

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	assert.ErrorIs(t, s.Consume(ctx, old.Value), nonce.ErrNonceNotFound)
	assert.NoError(t, s.Consume(ctx, fresh.Value))
}
