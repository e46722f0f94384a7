package license

import (
	"fmt"
	"strings"
	"time"
)

// MachineInfo identifies the machine claiming an activation slot.
type MachineInfo struct {
	MachineID string
	Hostname  string
	IPAddress string
}

func (m MachineInfo) Validate() error {
	if strings.TrimSpace(m.MachineID) == "" {
		return ErrMachineIDRequired
	}
	if len(m.MachineID) > 255 {
		return fmt.Errorf("machine ID too long")
	}
	return nil
}

// Activation binds one machine to one license slot.
type Activation struct {
	id            uint
	licenseID     uint
	machineID     string
	hostname      string
	ipAddress     string
	isActive      bool
	activatedAt   time.Time
	lastSeenAt    time.Time
	deactivatedAt *time.Time
}

func NewActivation(licenseID uint, machine MachineInfo) (*Activation, error) {
	if licenseID == 0 {
		return nil, fmt.Errorf("license ID is required")
	}
	if err := machine.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Activation{
		licenseID:   licenseID,
		machineID:   machine.MachineID,
		hostname:    machine.Hostname,
		ipAddress:   machine.IPAddress,
		isActive:    true,
		activatedAt: now,
		lastSeenAt:  now,
	}, nil
}

func ReconstructActivation(
	id, licenseID uint,
	machineID, hostname, ipAddress string,
	isActive bool,
	activatedAt, lastSeenAt time.Time,
	deactivatedAt *time.Time,
) *Activation {
	return &Activation{
		id:            id,
		licenseID:     licenseID,
		machineID:     machineID,
		hostname:      hostname,
		ipAddress:     ipAddress,
		isActive:      isActive,
		activatedAt:   activatedAt,
		lastSeenAt:    lastSeenAt,
		deactivatedAt: deactivatedAt,
	}
}

func (a *Activation) ID() uint                  { return a.id }
func (a *Activation) LicenseID() uint           { return a.licenseID }
func (a *Activation) MachineID() string         { return a.machineID }
func (a *Activation) Hostname() string          { return a.hostname }
func (a *Activation) IPAddress() string         { return a.ipAddress }
func (a *Activation) IsActive() bool            { return a.isActive }
func (a *Activation) ActivatedAt() time.Time    { return a.activatedAt }
func (a *Activation) LastSeenAt() time.Time     { return a.lastSeenAt }
func (a *Activation) DeactivatedAt() *time.Time { return a.deactivatedAt }
