package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licensegate/licensegate/internal/domain/audit"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/id"
)

func TestIssueLicense(t *testing.T) {
	f := newFixture(t)
	uc := NewIssueLicenseUseCase(f.licenses, f.products, f.recorder, "CL", f.log)

	expires := time.Now().Add(365 * 24 * time.Hour)
	res, err := uc.Execute(t.Context(), IssueLicenseCommand{
		ProductID:      f.product.ID(),
		CustomerName:   "Jane Buyer",
		Type:           "enterprise",
		MaxActivations: 5,
		AllowedDomains: []string{"WWW.Example.com", "example.com", "shop.example.org"},
		ExpiresAt:      &expires,
	})
	require.NoError(t, err)

	prefix, _, ok := id.ParseSegmented(res.LicenseKey, 4, 3)
	assert.True(t, ok, res.LicenseKey)
	assert.Equal(t, "CL", prefix)
	assert.Equal(t, []string{"example.com", "shop.example.org"}, res.AllowedDomains)
	assert.Equal(t, "active", res.Status)

	stored := f.reload(t, res.ID)
	assert.Equal(t, uint(1), stored.OwnerID())
	assert.Equal(t, vo.TypeEnterprise, stored.Type())
	assert.Equal(t, []audit.Action{audit.ActionLicenseIssued}, f.recorder.actions())
}

func TestIssueLicense_Rejects(t *testing.T) {
	f := newFixture(t)
	uc := NewIssueLicenseUseCase(f.licenses, f.products, f.recorder, "", f.log)

	tests := []struct {
		name    string
		cmd     IssueLicenseCommand
		errType errors.ErrorType
	}{
		{"unknown product", IssueLicenseCommand{ProductID: 999}, errors.ErrorTypeNotFound},
		{"foreign owner", IssueLicenseCommand{ProductID: f.product.ID(), OwnerID: 2}, errors.ErrorTypeForbidden},
		{"bad type", IssueLicenseCommand{ProductID: f.product.ID(), Type: "lifetime"}, errors.ErrorTypeValidation},
		{"bad domain", IssueLicenseCommand{ProductID: f.product.ID(), AllowedDomains: []string{"not a domain"}}, errors.ErrorTypeValidation},
		{"negative slots", IssueLicenseCommand{ProductID: f.product.ID(), MaxActivations: -1}, errors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(t.Context(), tt.cmd)
			appErr := errors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.errType, appErr.Type)
		})
	}
}

func TestChangeLicenseStatus(t *testing.T) {
	f := newFixture(t)
	l := f.createLicense(t, "LG-AAA-BBB-CCC-DDD")
	uc := NewChangeLicenseStatusUseCase(f.licenses, f.recorder, f.log)

	res, err := uc.Execute(t.Context(), ChangeLicenseStatusCommand{LicenseKey: l.LicenseKey(), Action: ActionSuspend, Reason: "chargeback"})
	require.NoError(t, err)
	assert.Equal(t, "suspended", res.Status)

	_, err = uc.Execute(t.Context(), ChangeLicenseStatusCommand{LicenseKey: l.LicenseKey(), Action: ActionRevoke})
	assert.Equal(t, errors.ErrorTypeConflict, errors.GetAppError(err).Type)

	res, err = uc.Execute(t.Context(), ChangeLicenseStatusCommand{LicenseKey: l.LicenseKey(), Action: ActionReinstate})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
	assert.Equal(t, vo.StatusActive, f.reload(t, l.ID()).Status())

	_, err = uc.Execute(t.Context(), ChangeLicenseStatusCommand{LicenseKey: l.LicenseKey(), Action: "delete"})
	assert.True(t, errors.IsValidationError(err))

	assert.Len(t, f.recorder.actions(), 2)
}

func TestChangeLicenseStatus_ReinstateExpiredNeedsNewExpiry(t *testing.T) {
	f := newFixture(t)
	l := f.createLicense(t, "LG-AAA-BBB-CCC-DDD", withExpiry(time.Now().Add(time.Hour)))
	f.forceExpiry(t, l.ID(), time.Now().Add(-time.Hour))
	_, err := NewExpireLicensesUseCase(f.licenses, f.publisher, f.metrics, f.log).Execute(t.Context())
	require.NoError(t, err)

	uc := NewChangeLicenseStatusUseCase(f.licenses, f.recorder, f.log)

	_, err = uc.Execute(t.Context(), ChangeLicenseStatusCommand{LicenseKey: l.LicenseKey(), Action: ActionReinstate})
	assert.Equal(t, errors.ErrorTypeConflict, errors.GetAppError(err).Type)

	extended := time.Now().Add(30 * 24 * time.Hour)
	res, err := uc.Execute(t.Context(), ChangeLicenseStatusCommand{LicenseKey: l.LicenseKey(), Action: ActionReinstate, NewExpiresAt: &extended})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
	assert.WithinDuration(t, extended, *f.reload(t, l.ID()).ExpiresAt(), time.Second)
}
