package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type StatusAction string

const (
	ActionRevoke    StatusAction = "revoke"
	ActionSuspend   StatusAction = "suspend"
	ActionReinstate StatusAction = "reinstate"
)

type ChangeLicenseStatusCommand struct {
	LicenseKey string
	Action     StatusAction
	// NewExpiresAt optionally extends the license on reinstate.
	NewExpiresAt *time.Time
	Reason       string
}

type ChangeLicenseStatusResult struct {
	LicenseKey string     `json:"license_key"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ChangeLicenseStatusUseCase is the administrative path for revoke, suspend
// and the reinstate override.
type ChangeLicenseStatusUseCase struct {
	licenses license.Repository
	recorder audit.Recorder
	logger   logger.Interface
}

func NewChangeLicenseStatusUseCase(
	licenses license.Repository,
	recorder audit.Recorder,
	logger logger.Interface,
) *ChangeLicenseStatusUseCase {
	return &ChangeLicenseStatusUseCase{
		licenses: licenses,
		recorder: recorder,
		logger:   logger,
	}
}

func (uc *ChangeLicenseStatusUseCase) Execute(ctx context.Context, cmd ChangeLicenseStatusCommand) (*ChangeLicenseStatusResult, error) {
	l, err := uc.licenses.GetByKey(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, errors.NewInternalError("failed to load license")
	}
	if l == nil {
		return nil, errors.NewNotFoundError(MsgNotFound)
	}

	from := l.Status()
	switch cmd.Action {
	case ActionRevoke:
		err = l.Revoke()
	case ActionSuspend:
		err = l.Suspend()
	case ActionReinstate:
		err = l.Reinstate(cmd.NewExpiresAt)
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown status action %q", cmd.Action))
	}
	if err != nil {
		if stderrors.Is(err, license.ErrInvalidStatusTransition) || stderrors.Is(err, license.ErrReinstateExpired) {
			return nil, errors.NewConflictError(err.Error())
		}
		return nil, errors.NewValidationError(err.Error())
	}

	if from != l.Status() || cmd.NewExpiresAt != nil {
		if err := uc.licenses.UpdateStatus(ctx, l); err != nil {
			uc.logger.Errorw("failed to update license status", "license_id", l.ID(), "error", err)
			return nil, errors.NewInternalError("failed to update license")
		}
		if uc.recorder != nil {
			uc.recorder.Record(audit.NewEntry(l.OwnerID(), audit.ActionLicenseStatus).
				ForLicense(l.ID()).
				With("from", from.String()).
				With("to", l.Status().String()).
				With("reason", cmd.Reason))
		}
		uc.logger.Infow("license status changed",
			"license_id", l.ID(),
			"from", from,
			"to", l.Status(),
			"reason", cmd.Reason,
		)
	}

	return &ChangeLicenseStatusResult{
		LicenseKey: l.LicenseKey(),
		Status:     l.Status().String(),
		ExpiresAt:  l.ExpiresAt(),
	}, nil
}
