package handlers

import (
	"context"

	"github.com/licensegate/licensegate/internal/application/license/usecases"
)

// Use case interfaces for LicenseHandler

type validateLicenseUseCase interface {
	Execute(ctx context.Context, cmd usecases.ValidateLicenseCommand) (*usecases.ValidationResult, error)
}

type activateLicenseUseCase interface {
	Execute(ctx context.Context, cmd usecases.ActivateLicenseCommand) (*usecases.ActivateLicenseResult, error)
}

type deactivateLicenseUseCase interface {
	Execute(ctx context.Context, cmd usecases.DeactivateLicenseCommand) (*usecases.DeactivateLicenseResult, error)
}

type getLicenseInfoUseCase interface {
	Execute(ctx context.Context, key string) (*usecases.LicenseInfo, error)
}

type issueNonceUseCase interface {
	Execute(ctx context.Context) (*usecases.IssueNonceResult, error)
}

type verifyTokenUseCase interface {
	Execute(cmd usecases.VerifyTokenCommand) *usecases.VerifyTokenResult
}
