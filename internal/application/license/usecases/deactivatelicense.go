package usecases

import (
	"context"
	"strings"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type DeactivateLicenseCommand struct {
	LicenseKey string
	MachineID  string
	ClientIP   string
	APIKey     *apikey.APIKey
}

type DeactivateLicenseResult struct {
	Deactivated bool   `json:"deactivated"`
	Message     string `json:"message"`
	Activations int    `json:"activations"`
}

// DeactivateLicenseUseCase releases a machine's slot. Releasing is allowed
// whatever the license status so customers can always free a machine.
type DeactivateLicenseUseCase struct {
	lifecycle
	ledger license.ActivationLedger
}

func NewDeactivateLicenseUseCase(
	licenses license.Repository,
	ledger license.ActivationLedger,
	publisher events.EventPublisher,
	recorder audit.Recorder,
	m *metrics.Registry,
	logger logger.Interface,
) *DeactivateLicenseUseCase {
	return &DeactivateLicenseUseCase{
		lifecycle: lifecycle{
			licenses:  licenses,
			publisher: publisher,
			recorder:  recorder,
			metrics:   m,
			logger:    logger,
		},
		ledger: ledger,
	}
}

func (uc *DeactivateLicenseUseCase) Execute(ctx context.Context, cmd DeactivateLicenseCommand) (*DeactivateLicenseResult, error) {
	if strings.TrimSpace(cmd.MachineID) == "" {
		return nil, errors.NewValidationError(license.ErrMachineIDRequired.Error())
	}

	l, err := uc.lookup(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, err
	}
	if err := checkScope(cmd.APIKey, l); err != nil {
		return nil, err
	}

	released, err := uc.ledger.Deactivate(ctx, l.ID(), cmd.MachineID)
	if err != nil {
		uc.logger.Errorw("failed to deactivate machine", "license_id", l.ID(), "error", err)
		return nil, errors.NewInternalError("failed to release activation")
	}
	if !released {
		return nil, errors.NewNotFoundError("Activation not found", cmd.MachineID)
	}

	uc.metrics.RecordDeactivation()
	activations := max(l.CurrentActivations()-1, 0)
	if fresh, err := uc.licenses.GetByID(ctx, l.ID()); err == nil && fresh != nil {
		l = fresh
		activations = fresh.CurrentActivations()
	}

	uc.publish(license.NewLicenseDeactivatedEvent(l, cmd.MachineID))
	uc.audit(audit.NewEntry(l.OwnerID(), audit.ActionLicenseDeactivated).
		ForLicense(l.ID()).
		ByAPIKey(keyID(cmd.APIKey)).
		From(cmd.ClientIP).
		With("machine_id", cmd.MachineID))

	return &DeactivateLicenseResult{
		Deactivated: true,
		Message:     MsgDeactivated,
		Activations: activations,
	}, nil
}
