package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/shared/constants"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
)

type apiKeyAuthenticator interface {
	Execute(ctx context.Context, rawKey, clientIP string) (*apikey.APIKey, error)
}

type APIKeyMiddleware struct {
	authenticator apiKeyAuthenticator
	logger        logger.Interface
}

func NewAPIKeyMiddleware(authenticator apiKeyAuthenticator, logger logger.Interface) *APIKeyMiddleware {
	return &APIKeyMiddleware{authenticator: authenticator, logger: logger}
}

// RequireAPIKey authenticates the request credential and stores the key
// under constants.ContextKeyAPIKey.
func (m *APIKeyMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := m.authenticator.Execute(c.Request.Context(), ExtractAPIKey(c), c.ClientIP())
		if err != nil {
			if authErr := errors.GetAuthError(err); authErr != nil {
				if authErr.ShouldLog {
					m.logger.Warnw("api key authentication failed",
						"reason", authErr.Type,
						"client_ip", c.ClientIP(),
						"path", c.Request.URL.Path,
						"security_event", authErr.SecurityEvent,
					)
				}
			}
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAPIKey, key)
		c.Next()
	}
}

// ExtractAPIKey reads the credential from X-API-Key, falling back to an
// Authorization Bearer token.
func ExtractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(constants.HeaderAPIKey)); key != "" {
		return key
	}

	parts := strings.SplitN(c.GetHeader(constants.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// APIKeyFromContext returns the key set by RequireAPIKey, or nil.
func APIKeyFromContext(c *gin.Context) *apikey.APIKey {
	v, ok := c.Get(constants.ContextKeyAPIKey)
	if !ok {
		return nil
	}
	key, _ := v.(*apikey.APIKey)
	return key
}
