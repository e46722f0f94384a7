package constants

const (
	// HTTP headers
	HeaderAuthorization      = "Authorization"
	HeaderAPIKey             = "X-API-Key"
	HeaderXRequestID         = "X-Request-ID"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
	HeaderWebhookSignature   = "X-Webhook-Signature"
	HeaderWebhookEvent       = "X-Webhook-Event"
	HeaderWebhookDelivery    = "X-Webhook-Delivery"

	// Gin context keys
	ContextKeyRequestID = "request_id"
	ContextKeyAPIKey    = "api_key"

	// Database table names
	TableProducts          = "products"
	TableLicenses          = "licenses"
	TableActivations       = "activations"
	TableAPIKeys           = "api_keys"
	TableAuditLogs         = "audit_logs"
	TableWebhooks          = "webhooks"
	TableWebhookDeliveries = "webhook_deliveries"
	TableNotificationLogs  = "notification_logs"

	// APIKeyPrefix starts every generated API key secret
	APIKeyPrefix = "lg_live_"
)
