package errors

import "net/http"

const (
	ErrorTypeAPIKeyMissing      ErrorType = "api_key_missing"
	ErrorTypeAPIKeyInvalid      ErrorType = "api_key_invalid"
	ErrorTypeAPIKeyInactive     ErrorType = "api_key_inactive"
	ErrorTypeAPIKeyExpired      ErrorType = "api_key_expired"
	ErrorTypeAPIKeyIPNotAllowed ErrorType = "ip_not_allowed"
)

// AuthError is an API key rejection. ShouldLog is false for failures that
// are routine (missing or expired keys); SecurityEvent flags failures worth
// counting for abuse detection.
type AuthError struct {
	*AppError
	ShouldLog     bool
	SecurityEvent bool
}

func (e *AuthError) Unwrap() error { return e.AppError }

func authError(t ErrorType, code int, message, details string, shouldLog, security bool) *AuthError {
	return &AuthError{
		AppError:      &AppError{Type: t, Message: message, Code: code, Details: details},
		ShouldLog:     shouldLog,
		SecurityEvent: security,
	}
}

func NewAPIKeyMissingError() *AuthError {
	return authError(ErrorTypeAPIKeyMissing, http.StatusUnauthorized,
		"API key is required", "Provide the key in the X-API-Key header or as a Bearer token", false, false)
}

// NewAPIKeyInvalidError does not say whether the key ever existed.
func NewAPIKeyInvalidError() *AuthError {
	return authError(ErrorTypeAPIKeyInvalid, http.StatusUnauthorized, "Invalid API key", "", true, true)
}

func NewAPIKeyInactiveError() *AuthError {
	return authError(ErrorTypeAPIKeyInactive, http.StatusUnauthorized, "API key is inactive", "", false, true)
}

func NewAPIKeyExpiredError() *AuthError {
	return authError(ErrorTypeAPIKeyExpired, http.StatusUnauthorized, "API key has expired", "", false, false)
}

func NewIPNotAllowedError(ip string) *AuthError {
	return authError(ErrorTypeAPIKeyIPNotAllowed, http.StatusForbidden,
		"Request origin is not allowed for this API key", ip, true, true)
}

func GetAuthError(err error) *AuthError {
	return as[*AuthError](err)
}
