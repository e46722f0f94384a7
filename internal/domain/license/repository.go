package license

import (
	"context"
	"time"

	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
)

// Repository persists License aggregates. Lookups return nil, nil when the
// license does not exist.
type Repository interface {
	Create(ctx context.Context, l *License) error
	GetByID(ctx context.Context, id uint) (*License, error)
	GetByKey(ctx context.Context, key string) (*License, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
	// UpdateStatus persists the aggregate's status and expiry.
	UpdateStatus(ctx context.Context, l *License) error
	// TransitionStatus moves a license from one status to another only if it
	// still holds from, reporting whether this call made the change.
	TransitionStatus(ctx context.Context, id uint, from, to vo.LicenseStatus) (bool, error)
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*License, error)
	// FindExpiringBetween pages through active licenses expiring in
	// (from, to] in id order, starting after afterID.
	FindExpiringBetween(ctx context.Context, from, to time.Time, afterID uint, limit int) ([]*License, error)
	Delete(ctx context.Context, id uint) error
}

// ActivationLedger owns activation slots. Every change to the set of active
// Activation rows moves the license counter in the same transaction.
type ActivationLedger interface {
	// Activate claims a slot for the machine. created is false when the
	// machine already held an active slot. Returns *SlotsExhaustedError when
	// no slot is free.
	Activate(ctx context.Context, licenseID uint, machine MachineInfo) (activation *Activation, created bool, err error)
	// Deactivate releases the machine's slot and reports whether an active
	// row was transitioned.
	Deactivate(ctx context.Context, licenseID uint, machineID string) (bool, error)
	ListActive(ctx context.Context, licenseID uint) ([]*Activation, error)
}
