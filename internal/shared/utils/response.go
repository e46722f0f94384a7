package utils

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/shared/errors"
)

// APIResponse wraps every management and info response. Validation and
// token verification answer flat so the signed payload is the body.
type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

var internalErrorInfo = ErrorInfo{
	Type:    string(errors.ErrorTypeInternal),
	Message: "Internal server error occurred",
}

func SuccessResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{Success: true, Data: data, Message: message})
}

// ErrorResponseWithError renders err. Typed application errors keep their
// status and message; anything else becomes a bare 500 so internals never
// reach the client.
func ErrorResponseWithError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Error: &internalErrorInfo})
		return
	}

	if rl := errors.GetRateLimitError(err); rl != nil {
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds(rl.RetryAfter.Seconds())))
	}
	c.JSON(appErr.Code, APIResponse{Error: &ErrorInfo{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

// RetryAfterSeconds rounds up to whole seconds, never below one.
func RetryAfterSeconds(seconds float64) int {
	return max(1, int(math.Ceil(seconds)))
}
