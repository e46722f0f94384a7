package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.ValidationsTotal)
	assert.NotNil(t, r.HTTPRequestsTotal)
	assert.NotNil(t, r.registry)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecorders(t *testing.T) {
	r := NewRegistry()

	r.RecordValidation("valid")
	r.RecordValidation("valid")
	r.RecordValidation("expired")
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ValidationsTotal.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ValidationsTotal.WithLabelValues("expired")))

	r.RecordRateLimited()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RateLimitRejections))

	r.RecordNonce("consume", "already_used")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.NonceOperationsTotal.WithLabelValues("consume", "already_used")))

	r.RecordWebhookAttempt(false, 20*time.Millisecond)
	r.RecordWebhookAttempt(true, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.WebhookDeliveries.WithLabelValues("failure")))

	r.RecordNotification("telegram", errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.NotificationsTotal.WithLabelValues("telegram", "failed")))

	r.RecordHTTPRequest("POST", "/licenses/validate", 200, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("POST", "/licenses/validate", "200")))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordValidation("valid")
		r.RecordActivation("created")
		r.RecordDeactivation()
		r.RecordRateLimited()
		r.RecordAuthFailure("invalid")
		r.RecordNonce("issue", "ok")
		r.RecordLicenseExpired("sweep")
		r.RecordWebhookAttempt(true, time.Millisecond)
		r.RecordNotification("email", nil)
		r.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordActivation("created")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `licensegate_activations_total{result="created"} 1`))
}
