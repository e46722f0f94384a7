package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAppError_UnwrapsAuthAndRateLimitErrors(t *testing.T) {
	authErr := fmt.Errorf("authenticate: %w", NewIPNotAllowedError("10.0.0.1"))
	appErr := GetAppError(authErr)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Code)
	assert.Equal(t, ErrorTypeAPIKeyIPNotAllowed, appErr.Type)
	assert.True(t, GetAuthError(authErr).SecurityEvent)

	rlErr := NewRateLimitedError(12 * time.Second)
	appErr = GetAppError(rlErr)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Code)
	assert.Equal(t, 12*time.Second, GetRateLimitError(fmt.Errorf("wrap: %w", rlErr)).RetryAfter)
}

func TestGetAuthError(t *testing.T) {
	assert.False(t, GetAuthError(NewAPIKeyMissingError()).ShouldLog)
	assert.True(t, GetAuthError(NewAPIKeyInvalidError()).ShouldLog)
	assert.Nil(t, GetAuthError(fmt.Errorf("plain")))
	assert.Nil(t, GetAppError(nil))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", NewNotFoundError("license not found"))))
	assert.False(t, IsValidationError(NewBadRequestError("bad json")))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(fmt.Errorf("Error 1062: Duplicate entry 'x' for key 'license_key'")))
	assert.True(t, IsDuplicateError(fmt.Errorf("UNIQUE constraint failed: licenses.license_key")))
	assert.True(t, IsDuplicateError(fmt.Errorf("ERROR: duplicate key value violates unique constraint")))
	assert.False(t, IsDuplicateError(fmt.Errorf("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
