package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/shared/constants"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

// quietPaths are probed constantly; successful hits are not logged.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// CustomLogger writes one access line per request: errors at error, client
// failures (including rate limiting) at warn, the rest at debug.
func CustomLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		if _, quiet := quietPaths[c.Request.URL.Path]; quiet && status < 400 {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"request_id", c.GetString(constants.ContextKeyRequestID),
		}
		if key := APIKeyFromContext(c); key != nil {
			args = append(args, "api_key_id", key.ID(), "api_key_prefix", key.Prefix())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", args...)
		case status >= 400:
			log.Warnw("request rejected", args...)
		default:
			log.Debugw("request completed", args...)
		}
	}
}
