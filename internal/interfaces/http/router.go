package http

import (
	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/interfaces/http/middleware"
	"github.com/licensegate/licensegate/internal/interfaces/http/routes"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.CustomLogger(c.log))
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.Metrics(c.metrics))
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))
	c.engine.Use(middleware.SecurityHeaders())

	if len(c.cfg.Server.TrustedProxies) > 0 {
		if err := c.engine.SetTrustedProxies(c.cfg.Server.TrustedProxies); err != nil {
			c.log.Warnw("invalid trusted proxies, client IPs fall back to the socket address", "error", err)
		}
	} else {
		_ = c.engine.SetTrustedProxies(nil)
	}

	c.engine.GET("/health", c.hdlrs.health.HealthCheck)
	c.engine.GET("/version", c.hdlrs.health.Version)
	c.engine.GET("/metrics", gin.WrapH(c.metrics.Handler()))

	routes.SetupLicenseRoutes(c.engine, &routes.LicenseRouteConfig{
		LicenseHandler:   c.hdlrs.license,
		APIKeyMiddleware: c.apiKeyMiddleware,
		RateLimiter:      c.rateLimiter,
	})
}

// GetEngine returns the Gin engine
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}
