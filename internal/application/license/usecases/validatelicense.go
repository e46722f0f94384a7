package usecases

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/nonce"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/auth"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

// Validation outcomes reported to metrics.
const (
	OutcomeValid           = "valid"
	OutcomeNonceRejected   = "nonce_rejected"
	OutcomeNotFound        = "not_found"
	OutcomeForbidden       = "forbidden"
	OutcomeProductMismatch = "product_mismatch"
	OutcomeDomainMismatch  = "domain_mismatch"
	OutcomeInactive        = "inactive"
	OutcomeExpired         = "expired"
	OutcomeSlotsExhausted  = "slots_exhausted"
)

type ValidateLicenseCommand struct {
	LicenseKey string
	Nonce      string
	Domain     string
	MachineID  string
	Hostname   string
	ProductID  string
	ClientIP   string
	APIKey     *apikey.APIKey
}

// ValidateLicenseUseCase runs the validation checks in a fixed order; the
// first failing check decides the result. Business rejections come back as
// a ValidationResult with Valid=false, only malformed input, scope violations
// and store failures are errors.
type ValidateLicenseUseCase struct {
	lifecycle
	ledger   license.ActivationLedger
	products product.Repository
	nonces   nonce.Store
	signer   ResponseSigner
	now      Clock
}

func NewValidateLicenseUseCase(
	licenses license.Repository,
	ledger license.ActivationLedger,
	products product.Repository,
	nonces nonce.Store,
	signer ResponseSigner,
	publisher events.EventPublisher,
	recorder audit.Recorder,
	m *metrics.Registry,
	logger logger.Interface,
) *ValidateLicenseUseCase {
	return &ValidateLicenseUseCase{
		lifecycle: lifecycle{
			licenses:  licenses,
			publisher: publisher,
			recorder:  recorder,
			metrics:   m,
			logger:    logger,
		},
		ledger:   ledger,
		products: products,
		nonces:   nonces,
		signer:   signer,
		now:      utcNow,
	}
}

func (uc *ValidateLicenseUseCase) Execute(ctx context.Context, cmd ValidateLicenseCommand) (*ValidationResult, error) {
	result, outcome, err := uc.validate(ctx, cmd)
	if err != nil {
		if outcome != "" {
			uc.metrics.RecordValidation(outcome)
		}
		return nil, err
	}
	uc.metrics.RecordValidation(outcome)
	return result, nil
}

func (uc *ValidateLicenseUseCase) validate(ctx context.Context, cmd ValidateLicenseCommand) (*ValidationResult, string, error) {
	now := uc.now()

	if cmd.Nonce != "" {
		if msg, err := uc.consumeNonce(ctx, cmd.Nonce); err != nil {
			return nil, "", err
		} else if msg != "" {
			return rejected(msg), OutcomeNonceRejected, nil
		}
	}

	l, err := uc.licenses.GetByKey(ctx, cmd.LicenseKey)
	if err != nil {
		uc.logger.Errorw("failed to get license", "license_key", logutil.MaskLicenseKey(cmd.LicenseKey), "error", err)
		return nil, "", errors.NewInternalError("failed to load license")
	}
	if l == nil {
		return rejected(MsgNotFound), OutcomeNotFound, nil
	}

	if err := checkScope(cmd.APIKey, l); err != nil {
		uc.logger.Warnw("product-scoped API key used for another product",
			"api_key_id", keyID(cmd.APIKey),
			"license_id", l.ID(),
		)
		return nil, OutcomeForbidden, err
	}

	if cmd.ProductID != "" && !uc.matchesProduct(ctx, l, cmd.ProductID) {
		return rejected(MsgProductMismatch), OutcomeProductMismatch, nil
	}

	if cmd.Domain != "" && l.AllowedDomains().IsRestricted() && !l.AllowsDomain(cmd.Domain) {
		details := typeAndStatus(l)
		details.AllowedDomains = l.AllowedDomains().Strings()
		return &ValidationResult{Message: MsgDomainMismatch, License: details}, OutcomeDomainMismatch, nil
	}

	if !l.Status().IsActive() {
		return &ValidationResult{Message: MsgNotActive, License: typeAndStatus(l)}, OutcomeInactive, nil
	}

	if l.IsExpiredAt(now) {
		if _, err := uc.expire(ctx, l, TriggerLazy); err != nil {
			uc.logger.Errorw("failed to persist lazy expiry", "license_id", l.ID(), "error", err)
			return nil, "", errors.NewInternalError("failed to update license")
		}
		return rejected(MsgExpired), OutcomeExpired, nil
	}

	activations := l.CurrentActivations()
	if cmd.MachineID != "" {
		count, rejection, err := uc.claimSlot(ctx, l, cmd)
		if err != nil {
			return nil, "", err
		}
		if rejection != nil {
			return rejection, OutcomeSlotsExhausted, nil
		}
		activations = count
	}

	result := &ValidationResult{
		Valid:   true,
		Message: MsgLicenseValid,
		License: fullDetails(l, activations),
	}
	if err := uc.seal(result, l, cmd, now.Unix()); err != nil {
		uc.logger.Errorw("failed to sign validation result", "license_id", l.ID(), "error", err)
		return nil, "", errors.NewInternalError("failed to sign response")
	}

	uc.audit(audit.NewEntry(l.OwnerID(), audit.ActionLicenseValidated).
		ForLicense(l.ID()).
		ByAPIKey(keyID(cmd.APIKey)).
		From(cmd.ClientIP).
		With("domain", cmd.Domain).
		With("machine_id", cmd.MachineID))

	return result, OutcomeValid, nil
}

// consumeNonce returns a rejection message for unusable nonces and an error
// only when the store itself fails.
func (uc *ValidateLicenseUseCase) consumeNonce(ctx context.Context, value string) (string, error) {
	err := uc.nonces.Consume(ctx, value)
	switch {
	case err == nil:
		uc.metrics.RecordNonce("consume", "ok")
		return "", nil
	case stderrors.Is(err, nonce.ErrNonceAlreadyUsed):
		uc.metrics.RecordNonce("consume", "used")
		return MsgNonceUsed, nil
	case stderrors.Is(err, nonce.ErrNonceExpired):
		uc.metrics.RecordNonce("consume", "expired")
		return MsgNonceExpired, nil
	case stderrors.Is(err, nonce.ErrNonceNotFound):
		uc.metrics.RecordNonce("consume", "not_found")
		return MsgNonceNotFound, nil
	default:
		uc.metrics.RecordNonce("consume", "error")
		uc.logger.Errorw("failed to consume nonce", "error", err)
		return "", errors.NewInternalError("failed to verify nonce")
	}
}

// matchesProduct accepts the license's numeric product id or its slug. The
// product is only loaded when the reference is not the id.
func (uc *ValidateLicenseUseCase) matchesProduct(ctx context.Context, l *license.License, ref string) bool {
	if ref == strconv.FormatUint(uint64(l.ProductID()), 10) {
		return true
	}
	p, err := uc.products.GetByID(ctx, l.ProductID())
	if err != nil {
		uc.logger.Warnw("failed to load product for match", "product_id", l.ProductID(), "error", err)
		return false
	}
	if p == nil {
		return false
	}
	return l.BelongsToProduct(ref, p.Slug())
}

// claimSlot binds the machine and returns the resulting activation count, or
// a rejection when every slot is taken.
func (uc *ValidateLicenseUseCase) claimSlot(ctx context.Context, l *license.License, cmd ValidateLicenseCommand) (int, *ValidationResult, error) {
	machine := license.MachineInfo{
		MachineID: cmd.MachineID,
		Hostname:  cmd.Hostname,
		IPAddress: cmd.ClientIP,
	}
	if err := machine.Validate(); err != nil {
		return 0, nil, errors.NewValidationError(err.Error())
	}

	activation, created, err := uc.ledger.Activate(ctx, l.ID(), machine)
	if err != nil {
		var exhausted *license.SlotsExhaustedError
		if stderrors.As(err, &exhausted) {
			uc.metrics.RecordActivation("exhausted")
			return 0, &ValidationResult{
				Message: MsgSlotsExhausted,
				License: slotCounts(exhausted.Activations, exhausted.MaxActivations),
			}, nil
		}
		uc.logger.Errorw("failed to activate machine", "license_id", l.ID(), "error", err)
		return 0, nil, errors.NewInternalError("failed to record activation")
	}

	if !created {
		uc.metrics.RecordActivation("existing")
		return l.CurrentActivations(), nil, nil
	}

	uc.metrics.RecordActivation("created")
	count := l.CurrentActivations() + 1
	if fresh, err := uc.licenses.GetByID(ctx, l.ID()); err == nil && fresh != nil {
		count = fresh.CurrentActivations()
		l = fresh
	}

	uc.publish(license.NewLicenseActivatedEvent(l, activation))
	uc.audit(audit.NewEntry(l.OwnerID(), audit.ActionLicenseActivated).
		ForLicense(l.ID()).
		ByAPIKey(keyID(cmd.APIKey)).
		From(cmd.ClientIP).
		With("machine_id", activation.MachineID()))

	return count, nil, nil
}

// seal attaches the signature and validation token. The signature covers
// the result as serialized without its security envelope.
func (uc *ValidateLicenseUseCase) seal(result *ValidationResult, l *license.License, cmd ValidateLicenseCommand, ts int64) error {
	signature, err := uc.signer.Sign(result, cmd.Nonce, ts)
	if err != nil {
		return err
	}
	result.Security = &SecurityEnvelope{
		Timestamp: ts,
		Nonce:     cmd.Nonce,
		Signature: signature,
		Token: uc.signer.IssueToken(l.LicenseKey(), result.Valid, ts, auth.TokenContext{
			Domain:    cmd.Domain,
			MachineID: cmd.MachineID,
			ProductID: cmd.ProductID,
		}),
	}
	return nil
}
