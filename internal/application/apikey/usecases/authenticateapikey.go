package usecases

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/goroutine"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

const (
	lastUsedTimeout = 5 * time.Second

	// Each protected request resolves its key twice: RateLimitFor reads the
	// store and refreshes the cache, Execute then reads the cache.
	keyCacheSize = 4096
	keyCacheTTL  = 10 * time.Second
)

type cachedKey struct {
	key      *apikey.APIKey
	cachedAt time.Time
}

// KeyHasher maps a presented secret to its stored hash.
type KeyHasher interface {
	Hash(plainToken string) string
}

// AuthenticateAPIKeyUseCase resolves the credential of a protocol request.
// Concurrent lookups of the same key share one store query, and found keys
// are cached briefly.
type AuthenticateAPIKeyUseCase struct {
	repo    apikey.Repository
	hasher  KeyHasher
	group   singleflight.Group
	cache   *lru.Cache[string, cachedKey]
	metrics *metrics.Registry
	logger  logger.Interface
	now     func() time.Time

	defaultLimit int
}

func NewAuthenticateAPIKeyUseCase(
	repo apikey.Repository,
	hasher KeyHasher,
	m *metrics.Registry,
	logger logger.Interface,
) *AuthenticateAPIKeyUseCase {
	cache, err := lru.New[string, cachedKey](keyCacheSize)
	if err != nil {
		logger.Errorw("failed to create api key cache, lookups will not be cached", "error", err)
	}

	return &AuthenticateAPIKeyUseCase{
		repo:    repo,
		hasher:  hasher,
		cache:   cache,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },

		defaultLimit: apikey.DefaultRateLimitPerMinute,
	}
}

// WithDefaultRateLimit sets the limit applied to unknown credentials.
func (uc *AuthenticateAPIKeyUseCase) WithDefaultRateLimit(limit int) *AuthenticateAPIKeyUseCase {
	if limit > 0 {
		uc.defaultLimit = limit
	}
	return uc
}

// Execute checks, in order: presence, existence, active flag, expiry and
// the IP allow-list. On success LastUsedAt is written in the background.
func (uc *AuthenticateAPIKeyUseCase) Execute(ctx context.Context, rawKey, clientIP string) (*apikey.APIKey, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		uc.metrics.RecordAuthFailure("missing")
		return nil, errors.NewAPIKeyMissingError()
	}

	key, err := uc.lookup(ctx, rawKey, false)
	if err != nil {
		uc.logger.Errorw("failed to look up api key", "error", err)
		return nil, errors.NewInternalError("failed to authenticate request")
	}

	now := uc.now()
	switch {
	case key == nil:
		uc.metrics.RecordAuthFailure("invalid")
		return nil, errors.NewAPIKeyInvalidError()
	case !key.IsActive():
		uc.metrics.RecordAuthFailure("inactive")
		return nil, errors.NewAPIKeyInactiveError()
	case key.IsExpiredAt(now):
		uc.metrics.RecordAuthFailure("expired")
		return nil, errors.NewAPIKeyExpiredError()
	case !key.AllowsIP(clientIP):
		uc.metrics.RecordAuthFailure("ip_not_allowed")
		return nil, errors.NewIPNotAllowedError(clientIP)
	}

	id := key.ID()
	goroutine.SafeGoWithTimeout(uc.logger, "apikey-last-used", lastUsedTimeout, func(ctx context.Context) {
		if err := uc.repo.UpdateLastUsedAt(ctx, id, now); err != nil {
			uc.logger.Warnw("failed to record api key usage", "api_key_id", id, "error", err)
		}
	})

	return key, nil
}

// RateLimitFor returns the per-minute limit for a presented credential,
// read from the store at call time. Unknown or unreadable credentials get
// the default.
func (uc *AuthenticateAPIKeyUseCase) RateLimitFor(ctx context.Context, rawKey string) int {
	key, err := uc.lookup(ctx, strings.TrimSpace(rawKey), true)
	if err != nil || key == nil {
		return uc.defaultLimit
	}
	return key.RateLimitPerMinute()
}

// Invalidate drops a key from the lookup cache.
func (uc *AuthenticateAPIKeyUseCase) Invalidate(keyHash string) {
	if uc.cache != nil {
		uc.cache.Remove(keyHash)
	}
}

func (uc *AuthenticateAPIKeyUseCase) lookup(ctx context.Context, rawKey string, fresh bool) (*apikey.APIKey, error) {
	hash := uc.hasher.Hash(rawKey)
	if !fresh && uc.cache != nil {
		if c, ok := uc.cache.Get(hash); ok && uc.now().Sub(c.cachedAt) < keyCacheTTL {
			return c.key, nil
		}
	}

	v, err, _ := uc.group.Do(hash, func() (any, error) {
		return uc.repo.GetByHash(ctx, hash)
	})
	if err != nil {
		return nil, err
	}
	key, _ := v.(*apikey.APIKey)
	// Unknown keys are not cached so random guesses cannot evict real ones.
	if uc.cache != nil {
		if key != nil {
			uc.cache.Add(hash, cachedKey{key: key, cachedAt: uc.now()})
		} else {
			uc.cache.Remove(hash)
		}
	}
	return key, nil
}
