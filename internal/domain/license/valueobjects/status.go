package valueobjects

type LicenseStatus string

const (
	StatusActive    LicenseStatus = "active"
	StatusExpired   LicenseStatus = "expired"
	StatusRevoked   LicenseStatus = "revoked"
	StatusSuspended LicenseStatus = "suspended"
)

func (s LicenseStatus) String() string {
	return string(s)
}

func (s LicenseStatus) IsActive() bool {
	return s == StatusActive
}

// CanTransitionTo covers the regular lifecycle. Leaving a terminal status
// back to active goes through License.Reinstate instead.
func (s LicenseStatus) CanTransitionTo(target LicenseStatus) bool {
	transitions := map[LicenseStatus][]LicenseStatus{
		StatusActive:    {StatusExpired, StatusRevoked, StatusSuspended},
		StatusExpired:   {StatusSuspended},
		StatusRevoked:   {StatusSuspended},
		StatusSuspended: {},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[LicenseStatus]bool{
	StatusActive:    true,
	StatusExpired:   true,
	StatusRevoked:   true,
	StatusSuspended: true,
}
