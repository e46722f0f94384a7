package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is a Bot API response with ok=false.
type APIError struct {
	ErrorCode   int
	Description string
	// RetryAfter is set on 429 responses, in seconds.
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram API error %d: %s (retry_after=%ds)", e.ErrorCode, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram API error %d: %s", e.ErrorCode, e.Description)
}

// IsBotBlocked reports a 403: the bot was removed from the operator chat or
// blocked, and nothing will be delivered until that is fixed.
func IsBotBlocked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == http.StatusForbidden
}

// RetryAfter returns how long Telegram asked the caller to back off.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == http.StatusTooManyRequests && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	return 0, false
}
