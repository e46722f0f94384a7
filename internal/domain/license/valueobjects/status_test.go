package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLicenseStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to LicenseStatus
		want     bool
	}{
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusRevoked, true},
		{StatusActive, StatusSuspended, true},
		{StatusExpired, StatusSuspended, true},
		{StatusRevoked, StatusSuspended, true},
		{StatusExpired, StatusActive, false},
		{StatusRevoked, StatusExpired, false},
		{StatusSuspended, StatusActive, false},
		{StatusSuspended, StatusRevoked, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}
