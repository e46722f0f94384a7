// Package usecases turns license events into owner and customer notices.
package usecases

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/notification"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

// OwnerNotifier relays every license event to the operator chat.
type OwnerNotifier struct {
	channel notification.Notifier
	metrics *metrics.Registry
	logger  logger.Interface
}

func NewOwnerNotifier(channel notification.Notifier, m *metrics.Registry, logger logger.Interface) *OwnerNotifier {
	return &OwnerNotifier{channel: channel, metrics: m, logger: logger}
}

func (h *OwnerNotifier) CanHandle(eventType string) bool {
	return h.channel.Enabled() && slices.Contains(license.AllEventTypes, eventType)
}

func (h *OwnerNotifier) Handle(ctx context.Context, event events.DomainEvent) error {
	msg, ok := ownerMessage(event)
	if !ok {
		return nil
	}
	err := h.channel.Send(ctx, msg)
	h.metrics.RecordNotification(h.channel.Name(), err)
	if err != nil {
		h.logger.Warnw("failed to send owner notification",
			"channel", h.channel.Name(),
			"event_type", event.GetEventType(),
			"error", err,
		)
	}
	return nil
}

// CustomerReminder emails the license holder when a license is about to expire.
type CustomerReminder struct {
	channel notification.Notifier
	metrics *metrics.Registry
	logger  logger.Interface
}

func NewCustomerReminder(channel notification.Notifier, m *metrics.Registry, logger logger.Interface) *CustomerReminder {
	return &CustomerReminder{channel: channel, metrics: m, logger: logger}
}

func (h *CustomerReminder) CanHandle(eventType string) bool {
	return h.channel.Enabled() && eventType == license.EventTypeLicenseExpiring
}

func (h *CustomerReminder) Handle(ctx context.Context, event events.DomainEvent) error {
	e, ok := event.(license.LicenseExpiringEvent)
	if !ok || e.CustomerEmail == "" {
		return nil
	}

	msg := notification.Message{
		To:      e.CustomerEmail,
		Subject: "Your license expires soon",
		Body: strings.Join([]string{
			fmt.Sprintf("Hello %s,", nameOr(e.CustomerName, "there")),
			fmt.Sprintf("Your license %s expires on %s.", logutil.MaskLicenseKey(e.LicenseKey), formatDate(e.ExpiresAt)),
			"Renew before that date to keep your installations running.",
		}, "\n"),
	}

	err := h.channel.Send(ctx, msg)
	h.metrics.RecordNotification(h.channel.Name(), err)
	if err != nil {
		h.logger.Warnw("failed to send expiry reminder", "license_id", e.LicenseID, "error", err)
	}
	return nil
}

func ownerMessage(event events.DomainEvent) (notification.Message, bool) {
	var subject string
	var lines []string

	switch e := event.(type) {
	case license.LicenseActivatedEvent:
		subject = "License activated"
		lines = []string{
			"Key: " + logutil.MaskLicenseKey(e.LicenseKey),
			"Machine: " + e.MachineID + hostSuffix(e.Hostname),
			fmt.Sprintf("Slots: %d/%d", e.Activations, e.MaxActivations),
		}
	case license.LicenseDeactivatedEvent:
		subject = "License deactivated"
		lines = []string{
			"Key: " + logutil.MaskLicenseKey(e.LicenseKey),
			"Machine: " + e.MachineID,
		}
	case license.LicenseExpiredEvent:
		subject = "License expired"
		lines = []string{
			"Key: " + logutil.MaskLicenseKey(e.LicenseKey),
			"Expired: " + formatDate(e.ExpiresAt),
		}
	case license.LicenseExpiringEvent:
		subject = "License expiring"
		lines = []string{
			"Key: " + logutil.MaskLicenseKey(e.LicenseKey),
			"Customer: " + nameOr(e.CustomerName, "-"),
			fmt.Sprintf("Expires: %s (%d days)", formatDate(e.ExpiresAt), e.DaysLeft),
		}
	default:
		return notification.Message{}, false
	}

	return notification.Message{
		Subject: subject,
		Body:    subject + "\n" + strings.Join(lines, "\n"),
	}, true
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func hostSuffix(hostname string) string {
	if hostname == "" {
		return ""
	}
	return " (" + hostname + ")"
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

var (
	_ events.EventHandler = (*OwnerNotifier)(nil)
	_ events.EventHandler = (*CustomerReminder)(nil)
)
