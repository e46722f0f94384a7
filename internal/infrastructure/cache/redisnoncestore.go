package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/licensegate/licensegate/internal/domain/nonce"
	"github.com/licensegate/licensegate/internal/shared/id"
)

// NonceKeyPrefix is the Redis key prefix for issued nonces.
const NonceKeyPrefix = "nonce:"

// consumeScript marks a nonce used in one round trip. The stored value is
// the issue time in unix milliseconds, prefixed with "u:" once consumed.
// Keys outlive the TTL so an expired nonce is told apart from an unknown one.
//
// Returns 1 on success, 0 not found, -1 already used, -2 expired.
var consumeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
if string.sub(v, 1, 2) == 'u:' then
  return -1
end
if tonumber(ARGV[1]) - tonumber(v) > tonumber(ARGV[2]) then
  return -2
end
redis.call('SET', KEYS[1], 'u:' .. v, 'PX', ARGV[2])
return 1
`)

// RedisNonceStore shares nonces between replicas.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisNonceStore(client *redis.Client, ttl time.Duration) *RedisNonceStore {
	if ttl <= 0 {
		ttl = nonce.DefaultTTL
	}
	return &RedisNonceStore{
		client: client,
		prefix: NonceKeyPrefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisNonceStore) Issue(ctx context.Context) (*nonce.Nonce, error) {
	value, err := id.RandomHex(nonce.ValueBytes)
	if err != nil {
		return nil, err
	}
	issuedAt := s.now().UTC()

	stamp := strconv.FormatInt(issuedAt.UnixMilli(), 10)
	if err := s.client.Set(ctx, s.buildKey(value), stamp, 2*s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store nonce in Redis: %w", err)
	}

	return &nonce.Nonce{Value: value, IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(s.ttl)}, nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, value string) error {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{s.buildKey(value)},
		s.now().UnixMilli(),
		s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return nonce.ErrNonceAlreadyUsed
	case -2:
		return nonce.ErrNonceExpired
	default:
		return nonce.ErrNonceNotFound
	}
}

func (s *RedisNonceStore) buildKey(value string) string {
	return s.prefix + value
}
