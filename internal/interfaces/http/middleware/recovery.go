package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/licensegate/licensegate/internal/shared/constants"
	apperrors "github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
)

// credentialHeaders are replaced before request headers reach the log.
var credentialHeaders = []string{constants.HeaderAuthorization, constants.HeaderAPIKey}

// Recovery turns a handler panic into a 500 envelope. A panic caused by the
// client hanging up is logged at warn and the request is dropped.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"error", recovered,
		}

		if isBrokenConnection(recovered) {
			log.Warnw("client connection broken during request", args...)
			c.Abort()
			return
		}

		log.Errorw("panic recovered", append(args,
			"headers", maskedHeaders(c.Request.Header),
			"stack", string(debug.Stack()))...)

		utils.ErrorResponseWithError(c, apperrors.NewInternalError("Internal server error occurred"))
	})
}

func maskedHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = fmt.Sprint(values)
	}
	for _, name := range credentialHeaders {
		if h.Get(name) != "" {
			out[http.CanonicalHeaderKey(name)] = "*"
		}
	}
	return out
}

func isBrokenConnection(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
