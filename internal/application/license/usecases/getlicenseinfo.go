package usecases

import (
	"context"
	"time"

	"github.com/licensegate/licensegate/internal/domain/license"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils/logutil"
)

// LicenseInfo is the public view shown on install pages. Customer data and
// bindings are never included.
type LicenseInfo struct {
	LicenseKey     string     `json:"license_key"`
	Product        string     `json:"product,omitempty"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxActivations int        `json:"max_activations"`
	Activations    int        `json:"activations"`
}

// GetLicenseInfoUseCase serves the unauthenticated lookup. It reports an
// overdue license as expired without persisting the transition.
type GetLicenseInfoUseCase struct {
	licenses license.Repository
	products product.Repository
	logger   logger.Interface
	now      Clock
}

func NewGetLicenseInfoUseCase(
	licenses license.Repository,
	products product.Repository,
	logger logger.Interface,
) *GetLicenseInfoUseCase {
	return &GetLicenseInfoUseCase{
		licenses: licenses,
		products: products,
		logger:   logger,
		now:      utcNow,
	}
}

func (uc *GetLicenseInfoUseCase) Execute(ctx context.Context, key string) (*LicenseInfo, error) {
	l, err := uc.licenses.GetByKey(ctx, key)
	if err != nil {
		uc.logger.Errorw("failed to get license", "license_key", logutil.MaskLicenseKey(key), "error", err)
		return nil, errors.NewInternalError("failed to load license")
	}
	if l == nil {
		return nil, errors.NewNotFoundError(MsgNotFound)
	}

	status := l.Status()
	if status.IsActive() && l.IsExpiredAt(uc.now()) {
		status = vo.StatusExpired
	}

	info := &LicenseInfo{
		LicenseKey:     l.LicenseKey(),
		Type:           l.Type().String(),
		Status:         status.String(),
		ExpiresAt:      l.ExpiresAt(),
		MaxActivations: l.MaxActivations(),
		Activations:    l.CurrentActivations(),
	}

	if p, err := uc.products.GetByID(ctx, l.ProductID()); err != nil {
		uc.logger.Warnw("failed to load product for license info", "product_id", l.ProductID(), "error", err)
	} else if p != nil {
		info.Product = p.Name()
	}

	return info, nil
}
