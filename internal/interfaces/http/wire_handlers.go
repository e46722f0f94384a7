package http

import (
	"github.com/licensegate/licensegate/internal/infrastructure/database"
	"github.com/licensegate/licensegate/internal/interfaces/http/handlers"
	"github.com/licensegate/licensegate/internal/interfaces/http/middleware"
)

// allHandlers holds every HTTP handler
type allHandlers struct {
	license *handlers.LicenseHandler
	health  *handlers.HealthHandler
}

func (c *Container) initHandlers() {
	u := c.ucs

	c.hdlrs = &allHandlers{
		license: handlers.NewLicenseHandler(
			u.validateLicense,
			u.activateLicense,
			u.deactivateLicense,
			u.getLicenseInfo,
			u.issueNonce,
			u.verifyToken,
			c.log,
		),
		health: handlers.NewHealthHandler(database.Pinger(c.db), c.log),
	}

	c.apiKeyMiddleware = middleware.NewAPIKeyMiddleware(u.authenticateKey, c.log)
	c.rateLimiter = middleware.NewRateLimiter(c.limiter, u.authenticateKey, c.metrics, c.log)
}
