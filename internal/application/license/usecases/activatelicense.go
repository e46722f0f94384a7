package usecases

import (
	"context"
	stderrors "errors"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type ActivateLicenseCommand struct {
	LicenseKey string
	MachineID  string
	Hostname   string
	ClientIP   string
	APIKey     *apikey.APIKey
}

type ActivateLicenseResult struct {
	Activated      bool            `json:"activated"`
	Created        bool            `json:"created"`
	Message        string          `json:"message"`
	Activation     *ActivationView `json:"activation"`
	Activations    int             `json:"activations"`
	MaxActivations int             `json:"max_activations"`
}

// ActivateLicenseUseCase binds a machine without the full validation flow.
// Unlike validate, rejections are errors: 404 unknown license, 403 scope or
// status, 409 no free slot.
type ActivateLicenseUseCase struct {
	lifecycle
	ledger license.ActivationLedger
	now    Clock
}

func NewActivateLicenseUseCase(
	licenses license.Repository,
	ledger license.ActivationLedger,
	publisher events.EventPublisher,
	recorder audit.Recorder,
	m *metrics.Registry,
	logger logger.Interface,
) *ActivateLicenseUseCase {
	return &ActivateLicenseUseCase{
		lifecycle: lifecycle{
			licenses:  licenses,
			publisher: publisher,
			recorder:  recorder,
			metrics:   m,
			logger:    logger,
		},
		ledger: ledger,
		now:    utcNow,
	}
}

func (uc *ActivateLicenseUseCase) Execute(ctx context.Context, cmd ActivateLicenseCommand) (*ActivateLicenseResult, error) {
	machine := license.MachineInfo{
		MachineID: cmd.MachineID,
		Hostname:  cmd.Hostname,
		IPAddress: cmd.ClientIP,
	}
	if err := machine.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	l, err := uc.lookup(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, err
	}
	if err := checkScope(cmd.APIKey, l); err != nil {
		return nil, err
	}
	if err := uc.usable(ctx, l, uc.now()); err != nil {
		return nil, err
	}

	activation, created, err := uc.ledger.Activate(ctx, l.ID(), machine)
	if err != nil {
		var exhausted *license.SlotsExhaustedError
		if stderrors.As(err, &exhausted) {
			uc.metrics.RecordActivation("exhausted")
			return nil, errors.NewConflictError(MsgSlotsExhausted, exhausted.Error())
		}
		uc.logger.Errorw("failed to activate machine", "license_id", l.ID(), "error", err)
		return nil, errors.NewInternalError("failed to record activation")
	}

	result := &ActivateLicenseResult{
		Activated:      true,
		Created:        created,
		Activation:     toActivationView(activation),
		Activations:    l.CurrentActivations(),
		MaxActivations: l.MaxActivations(),
	}

	if !created {
		uc.metrics.RecordActivation("existing")
		result.Message = MsgAlreadyActivated
		return result, nil
	}

	uc.metrics.RecordActivation("created")
	result.Message = MsgActivated
	result.Activations++
	if fresh, err := uc.licenses.GetByID(ctx, l.ID()); err == nil && fresh != nil {
		l = fresh
		result.Activations = fresh.CurrentActivations()
	}

	uc.publish(license.NewLicenseActivatedEvent(l, activation))
	uc.audit(audit.NewEntry(l.OwnerID(), audit.ActionLicenseActivated).
		ForLicense(l.ID()).
		ByAPIKey(keyID(cmd.APIKey)).
		From(cmd.ClientIP).
		With("machine_id", activation.MachineID()))

	uc.logger.Infow("machine activated",
		"license_id", l.ID(),
		"machine_id", activation.MachineID(),
		"activations", result.Activations,
	)
	return result, nil
}
