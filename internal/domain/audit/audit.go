package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionLicenseValidated   Action = "license.validated"
	ActionLicenseActivated   Action = "license.activated"
	ActionLicenseDeactivated Action = "license.deactivated"
	ActionLicenseIssued      Action = "license.issued"
	ActionLicenseStatus      Action = "license.status_changed"
)

// Entry is one immutable audit record.
type Entry struct {
	ID        uint
	OwnerID   uint
	LicenseID *uint
	APIKeyID  *uint
	Action    Action
	IPAddress string
	Details   map[string]any
	CreatedAt time.Time
}

func NewEntry(ownerID uint, action Action) *Entry {
	return &Entry{
		OwnerID:   ownerID,
		Action:    action,
		Details:   make(map[string]any),
		CreatedAt: time.Now().UTC(),
	}
}

func (e *Entry) ForLicense(id uint) *Entry {
	e.LicenseID = &id
	return e
}

func (e *Entry) ByAPIKey(id uint) *Entry {
	if id != 0 {
		e.APIKeyID = &id
	}
	return e
}

func (e *Entry) From(ip string) *Entry {
	e.IPAddress = ip
	return e
}

func (e *Entry) With(key string, value any) *Entry {
	e.Details[key] = value
	return e
}

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByLicense(ctx context.Context, licenseID uint, limit int) ([]*Entry, error)
}

// Recorder writes entries without blocking the caller.
type Recorder interface {
	Record(e *Entry)
}
