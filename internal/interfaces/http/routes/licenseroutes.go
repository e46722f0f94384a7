package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/interfaces/http/handlers"
	"github.com/licensegate/licensegate/internal/interfaces/http/middleware"
)

// LicenseRouteConfig holds dependencies for the client protocol routes.
type LicenseRouteConfig struct {
	LicenseHandler   *handlers.LicenseHandler
	APIKeyMiddleware *middleware.APIKeyMiddleware
	RateLimiter      *middleware.RateLimiter
}

// SetupLicenseRoutes configures the license protocol routes. Rate limiting
// runs before authentication so rejected keys still count against the window.
func SetupLicenseRoutes(engine *gin.Engine, cfg *LicenseRouteConfig) {
	// Public endpoints (no credential required)
	engine.GET("/licenses/info/:key", cfg.LicenseHandler.Info)
	engine.POST("/licenses/verify-token", cfg.LicenseHandler.VerifyToken)

	protected := engine.Group("")
	protected.Use(cfg.RateLimiter.Limit(), cfg.APIKeyMiddleware.RequireAPIKey())
	{
		protected.POST("/licenses/validate", cfg.LicenseHandler.Validate)
		protected.POST("/licenses/activate", cfg.LicenseHandler.Activate)
		protected.POST("/licenses/deactivate", cfg.LicenseHandler.Deactivate)
		protected.POST("/nonce", cfg.LicenseHandler.IssueNonce)
	}
}
