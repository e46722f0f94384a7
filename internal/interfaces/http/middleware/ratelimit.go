package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/infrastructure/ratelimit"
	"github.com/licensegate/licensegate/internal/shared/constants"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
)

type limitResolver interface {
	RateLimitFor(ctx context.Context, rawKey string) int
}

// RateLimiter throttles credentialed requests per (API key, client IP).
// Requests without a credential pass through untouched.
type RateLimiter struct {
	limiter ratelimit.RateLimiter
	limits  limitResolver
	metrics *metrics.Registry
	logger  logger.Interface
	now     func() time.Time
}

func NewRateLimiter(limiter ratelimit.RateLimiter, limits limitResolver, m *metrics.Registry, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		limits:  limits,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := ExtractAPIKey(c)
		if rawKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		limit := rl.limits.RateLimitFor(ctx, rawKey)

		decision, err := rl.limiter.Allow(ctx, identity(rawKey, c.ClientIP()), limit)
		if err != nil {
			// Fail open, the store being down must not take the protocol down
			rl.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header(constants.HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
		c.Header(constants.HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
		c.Header(constants.HeaderRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			rl.metrics.RecordRateLimited()
			utils.ErrorResponseWithError(c, errors.NewRateLimitedError(decision.RetryAfter(rl.now())))
			c.Abort()
			return
		}

		c.Next()
	}
}

// identity never embeds the raw secret in a store key.
func identity(rawKey, clientIP string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:]) + ":" + clientIP
}
