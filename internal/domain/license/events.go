package license

import (
	"fmt"
	"time"

	"github.com/licensegate/licensegate/internal/domain/shared/events"
)

const (
	EventTypeLicenseActivated   = "license.activated"
	EventTypeLicenseDeactivated = "license.deactivated"
	EventTypeLicenseExpired     = "license.expired"
	EventTypeLicenseExpiring    = "license.expiring"
)

// AllEventTypes lists every event a webhook may subscribe to.
var AllEventTypes = []string{
	EventTypeLicenseActivated,
	EventTypeLicenseDeactivated,
	EventTypeLicenseExpired,
	EventTypeLicenseExpiring,
}

// OwnedEvent is implemented by every license event so subscribers can route
// by owning account.
type OwnedEvent interface {
	events.DomainEvent
	GetOwnerID() uint
}

type licenseRef struct {
	LicenseID  uint   `json:"license_id"`
	LicenseKey string `json:"license_key"`
	ProductID  uint   `json:"product_id"`
	OwnerID    uint   `json:"owner_id"`
}

func (r licenseRef) GetOwnerID() uint { return r.OwnerID }

func refOf(l *License) licenseRef {
	return licenseRef{
		LicenseID:  l.ID(),
		LicenseKey: l.LicenseKey(),
		ProductID:  l.ProductID(),
		OwnerID:    l.OwnerID(),
	}
}

func baseEvent(eventType string, licenseID uint) events.BaseEvent {
	return events.BaseEvent{
		AggregateID: fmt.Sprintf("license:%d", licenseID),
		EventType:   eventType,
		OccurredAt:  time.Now().UTC(),
	}
}

type LicenseActivatedEvent struct {
	events.BaseEvent
	licenseRef
	MachineID      string `json:"machine_id"`
	Hostname       string `json:"hostname,omitempty"`
	IPAddress      string `json:"ip_address,omitempty"`
	Activations    int    `json:"activations"`
	MaxActivations int    `json:"max_activations"`
}

func NewLicenseActivatedEvent(l *License, a *Activation) LicenseActivatedEvent {
	return LicenseActivatedEvent{
		BaseEvent:      baseEvent(EventTypeLicenseActivated, l.ID()),
		licenseRef:     refOf(l),
		MachineID:      a.MachineID(),
		Hostname:       a.Hostname(),
		IPAddress:      a.IPAddress(),
		Activations:    l.CurrentActivations(),
		MaxActivations: l.MaxActivations(),
	}
}

type LicenseDeactivatedEvent struct {
	events.BaseEvent
	licenseRef
	MachineID string `json:"machine_id"`
}

func NewLicenseDeactivatedEvent(l *License, machineID string) LicenseDeactivatedEvent {
	return LicenseDeactivatedEvent{
		BaseEvent:  baseEvent(EventTypeLicenseDeactivated, l.ID()),
		licenseRef: refOf(l),
		MachineID:  machineID,
	}
}

type LicenseExpiredEvent struct {
	events.BaseEvent
	licenseRef
	ExpiresAt *time.Time `json:"expires_at"`
}

func NewLicenseExpiredEvent(l *License) LicenseExpiredEvent {
	return LicenseExpiredEvent{
		BaseEvent:  baseEvent(EventTypeLicenseExpired, l.ID()),
		licenseRef: refOf(l),
		ExpiresAt:  l.ExpiresAt(),
	}
}

type LicenseExpiringEvent struct {
	events.BaseEvent
	licenseRef
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at"`
	DaysLeft      int        `json:"days_left"`
}

func NewLicenseExpiringEvent(l *License, now time.Time) LicenseExpiringEvent {
	days := 0
	if l.ExpiresAt() != nil {
		days = int(l.ExpiresAt().Sub(now).Hours() / 24)
	}
	return LicenseExpiringEvent{
		BaseEvent:     baseEvent(EventTypeLicenseExpiring, l.ID()),
		licenseRef:    refOf(l),
		CustomerName:  l.CustomerName(),
		CustomerEmail: l.CustomerEmail(),
		ExpiresAt:     l.ExpiresAt(),
		DaysLeft:      days,
	}
}
