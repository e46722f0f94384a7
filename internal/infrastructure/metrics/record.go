package metrics

import (
	"strconv"
	"time"
)

func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordValidation counts one validate outcome, e.g. "valid", "not_found",
// "expired", "slots_exhausted".
func (r *Registry) RecordValidation(outcome string) {
	if r == nil {
		return
	}
	r.ValidationsTotal.WithLabelValues(outcome).Inc()
}

func (r *Registry) RecordActivation(result string) {
	if r == nil {
		return
	}
	r.ActivationsTotal.WithLabelValues(result).Inc()
}

func (r *Registry) RecordDeactivation() {
	if r == nil {
		return
	}
	r.DeactivationsTotal.Inc()
}

func (r *Registry) RecordRateLimited() {
	if r == nil {
		return
	}
	r.RateLimitRejections.Inc()
}

func (r *Registry) RecordAuthFailure(reason string) {
	if r == nil {
		return
	}
	r.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

func (r *Registry) RecordNonce(operation, result string) {
	if r == nil {
		return
	}
	r.NonceOperationsTotal.WithLabelValues(operation, result).Inc()
}

func (r *Registry) RecordLicenseExpired(trigger string) {
	if r == nil {
		return
	}
	r.LicensesExpiredTotal.WithLabelValues(trigger).Inc()
}

func (r *Registry) RecordWebhookAttempt(success bool, duration time.Duration) {
	if r == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	r.WebhookDeliveries.WithLabelValues(result).Inc()
	r.WebhookDeliveryLength.Observe(duration.Seconds())
}

func (r *Registry) RecordNotification(channel string, err error) {
	if r == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	r.NotificationsTotal.WithLabelValues(channel, result).Inc()
}
