package license

import (
	"errors"
	"fmt"
)

var (
	ErrLicenseNotFound         = errors.New("license not found")
	ErrLicenseKeyExists        = errors.New("license key already exists")
	ErrInvalidLicenseType      = errors.New("invalid license type")
	ErrInvalidMaxActivations   = errors.New("max activations must be at least 1")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrReinstateExpired        = errors.New("license expiry has passed, supply a new expiry to reinstate")
	ErrMachineIDRequired       = errors.New("machine ID is required")
	ErrSlotsExhausted          = errors.New("activation slots exhausted")
	ErrActivationNotFound      = errors.New("activation not found")
)

// SlotsExhaustedError reports the counter values observed when a new
// activation was refused. It matches ErrSlotsExhausted with errors.Is.
type SlotsExhaustedError struct {
	Activations    int
	MaxActivations int
}

func (e *SlotsExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d/%d", ErrSlotsExhausted, e.Activations, e.MaxActivations)
}

func (e *SlotsExhaustedError) Is(target error) bool {
	return target == ErrSlotsExhausted
}
