package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
)

// Metrics records request counts and latency by route template.
func Metrics(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		reg.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
