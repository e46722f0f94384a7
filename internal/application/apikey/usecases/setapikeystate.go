package usecases

import (
	"context"
	stderrors "errors"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type keyCacheInvalidator interface {
	Invalidate(keyHash string)
}

type SetAPIKeyStateResult struct {
	ID       uint   `json:"id"`
	Prefix   string `json:"prefix"`
	IsActive bool   `json:"is_active"`
}

// SetAPIKeyStateUseCase disables or re-enables a key. A server in another
// process picks the change up when its lookup cache entry expires.
type SetAPIKeyStateUseCase struct {
	repo   apikey.Repository
	cache  keyCacheInvalidator
	logger logger.Interface
}

func NewSetAPIKeyStateUseCase(repo apikey.Repository, cache keyCacheInvalidator, logger logger.Interface) *SetAPIKeyStateUseCase {
	return &SetAPIKeyStateUseCase{repo: repo, cache: cache, logger: logger}
}

func (uc *SetAPIKeyStateUseCase) Execute(ctx context.Context, id uint, active bool) (*SetAPIKeyStateResult, error) {
	key, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to load api key")
	}
	if key == nil {
		return nil, errors.NewNotFoundError("api key not found")
	}

	if err := uc.repo.SetActive(ctx, id, active); err != nil {
		if stderrors.Is(err, apikey.ErrAPIKeyNotFound) {
			return nil, errors.NewNotFoundError("api key not found")
		}
		return nil, errors.NewInternalError("failed to update api key")
	}
	if uc.cache != nil {
		uc.cache.Invalidate(key.KeyHash())
	}

	uc.logger.Infow("api key state changed", "api_key_id", id, "active", active)
	return &SetAPIKeyStateResult{ID: id, Prefix: key.Prefix(), IsActive: active}, nil
}
