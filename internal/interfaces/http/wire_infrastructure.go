package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/notification"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/domain/webhook"
	"github.com/licensegate/licensegate/internal/infrastructure/auth"
	"github.com/licensegate/licensegate/internal/infrastructure/cache"
	"github.com/licensegate/licensegate/internal/infrastructure/ratelimit"
	"github.com/licensegate/licensegate/internal/infrastructure/repository"
	"github.com/licensegate/licensegate/internal/infrastructure/token"
)

// repositories holds every repository instance
type repositories struct {
	licenses      license.Repository
	ledger        license.ActivationLedger
	products      product.Repository
	apiKeys       apikey.Repository
	webhooks      webhook.Repository
	deliveries    webhook.DeliveryRepository
	notifications notification.LogRepository
	audit         audit.Recorder
	tokens        token.TokenGenerator
}

func (c *Container) initInfrastructure() error {
	c.repos = &repositories{
		licenses:      repository.NewLicenseRepository(c.db, c.log),
		ledger:        repository.NewActivationLedger(c.db, c.log),
		products:      repository.NewProductRepository(c.db, c.log),
		apiKeys:       repository.NewAPIKeyRepository(c.db, c.log),
		webhooks:      repository.NewWebhookRepository(c.db, c.log),
		deliveries:    repository.NewWebhookDeliveryRepository(c.db, c.log),
		notifications: repository.NewNotificationLogRepository(c.db, c.log),
		audit:         repository.NewAsyncAuditRecorder(repository.NewAuditRepository(c.db, c.log), c.log),
		tokens:        token.NewTokenGenerator(),
	}

	if err := c.initStateStores(); err != nil {
		return err
	}
	return c.initSigner()
}

// initStateStores picks where nonces and rate-limit windows live. Memory
// stores are per process; every replica keeps its own view.
func (c *Container) initStateStores() error {
	backend := c.cfg.Security.StateBackend
	if backend == "" {
		backend = StateBackendMemory
	}
	if !validBackend(backend) {
		return fmt.Errorf("unsupported state backend %q", backend)
	}

	window := c.cfg.RateLimit.Window

	if backend == StateBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     c.cfg.Redis.GetAddr(),
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.redis = client
		c.nonces = cache.NewRedisNonceStore(client, c.cfg.Security.NonceTTL)
		c.limiter = ratelimit.NewRedisRateLimiter(client, window)
		c.log.Infow("protocol state stored in redis", "address", c.cfg.Redis.GetAddr())
		return nil
	}

	nonces := cache.NewMemoryNonceStore(c.cfg.Security.NonceTTL)
	limiter := ratelimit.NewMemoryRateLimiter(window)
	c.nonces = nonces
	c.limiter = limiter
	c.sweepers = []sweeper{nonces, limiter}
	c.log.Infow("protocol state stored in process memory, nonces and rate limits are not shared across replicas")
	return nil
}

func (c *Container) initSigner() error {
	secret, generated, err := auth.ResolveSecret(c.cfg.Security.SigningSecret)
	if err != nil {
		return err
	}
	if generated {
		c.log.Warnw("security.signing_secret is not set, using a random secret; signatures and tokens will not verify after a restart")
	}

	signer, err := auth.NewSigner(secret, c.cfg.Security.TokenMaxAge)
	if err != nil {
		return err
	}
	c.signer = signer
	return nil
}
