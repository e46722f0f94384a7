package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/id"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

const (
	DefaultKeyPrefix = "LG"
	keyGroups        = 4
	keyGroupSize     = 3
	maxKeyAttempts   = 5
)

type IssueLicenseCommand struct {
	ProductID      uint
	OwnerID        uint
	CustomerName   string
	CustomerEmail  string
	Type           string
	MaxActivations int
	AllowedDomains []string
	ExpiresAt      *time.Time
	Metadata       map[string]any
}

type IssueLicenseResult struct {
	ID             uint       `json:"id"`
	LicenseKey     string     `json:"license_key"`
	ProductID      uint       `json:"product_id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	MaxActivations int        `json:"max_activations"`
	AllowedDomains []string   `json:"allowed_domains,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// IssueLicenseUseCase generates a unique key and stores a new active license.
type IssueLicenseUseCase struct {
	licenses  license.Repository
	products  product.Repository
	recorder  audit.Recorder
	keyPrefix string
	logger    logger.Interface
}

func NewIssueLicenseUseCase(
	licenses license.Repository,
	products product.Repository,
	recorder audit.Recorder,
	keyPrefix string,
	logger logger.Interface,
) *IssueLicenseUseCase {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &IssueLicenseUseCase{
		licenses:  licenses,
		products:  products,
		recorder:  recorder,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (uc *IssueLicenseUseCase) Execute(ctx context.Context, cmd IssueLicenseCommand) (*IssueLicenseResult, error) {
	for _, d := range cmd.AllowedDomains {
		if !utils.IsValidDomain(vo.NormalizeDomain(d)) {
			return nil, errors.NewValidationError("invalid allowed domain", d)
		}
	}
	if cmd.MaxActivations == 0 {
		cmd.MaxActivations = 1
	}
	if cmd.Type == "" {
		cmd.Type = vo.TypeStandard.String()
	}

	p, err := uc.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		uc.logger.Errorw("failed to get product", "product_id", cmd.ProductID, "error", err)
		return nil, errors.NewInternalError("failed to load product")
	}
	if p == nil {
		return nil, errors.NewNotFoundError("product not found")
	}
	if cmd.OwnerID == 0 {
		cmd.OwnerID = p.OwnerID()
	}
	if cmd.OwnerID != p.OwnerID() {
		return nil, errors.NewForbiddenError("product belongs to another account")
	}

	var l *license.License
	for attempt := 1; ; attempt++ {
		key, err := id.GenerateSegmented(uc.keyPrefix, keyGroups, keyGroupSize)
		if err != nil {
			return nil, errors.NewInternalError("failed to generate license key")
		}

		l, err = license.NewLicense(license.NewLicenseParams{
			LicenseKey:     key,
			ProductID:      cmd.ProductID,
			OwnerID:        cmd.OwnerID,
			CustomerName:   cmd.CustomerName,
			CustomerEmail:  cmd.CustomerEmail,
			Type:           vo.LicenseType(cmd.Type),
			MaxActivations: cmd.MaxActivations,
			AllowedDomains: cmd.AllowedDomains,
			ExpiresAt:      cmd.ExpiresAt,
			Metadata:       cmd.Metadata,
		})
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}

		err = uc.licenses.Create(ctx, l)
		if err == nil {
			break
		}
		if !stderrors.Is(err, license.ErrLicenseKeyExists) {
			uc.logger.Errorw("failed to create license", "product_id", cmd.ProductID, "error", err)
			return nil, errors.NewInternalError("failed to create license")
		}
		if attempt >= maxKeyAttempts {
			return nil, errors.NewInternalError(fmt.Sprintf("no unique license key after %d attempts", attempt))
		}
		uc.logger.Warnw("license key collision, regenerating", "attempt", attempt)
	}

	if uc.recorder != nil {
		uc.recorder.Record(audit.NewEntry(l.OwnerID(), audit.ActionLicenseIssued).
			ForLicense(l.ID()).
			With("type", l.Type().String()).
			With("max_activations", l.MaxActivations()))
	}

	uc.logger.Infow("license issued",
		"license_id", l.ID(),
		"license_key", logutil.MaskLicenseKey(l.LicenseKey()),
		"product_id", l.ProductID(),
	)

	return &IssueLicenseResult{
		ID:             l.ID(),
		LicenseKey:     l.LicenseKey(),
		ProductID:      l.ProductID(),
		Type:           l.Type().String(),
		Status:         l.Status().String(),
		MaxActivations: l.MaxActivations(),
		AllowedDomains: l.AllowedDomains().Strings(),
		ExpiresAt:      l.ExpiresAt(),
	}, nil
}
