package usecases

import (
	"context"
	"time"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/infrastructure/token"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type CreateAPIKeyCommand struct {
	Name               string
	OwnerID            uint
	ProductID          *uint
	AllowedIPs         []string
	RateLimitPerMinute int
	ExpiresAt          *time.Time
	Test               bool
}

// CreateAPIKeyResult carries the only copy of the plaintext secret.
type CreateAPIKeyResult struct {
	ID                 uint       `json:"id"`
	Key                string     `json:"key"`
	Prefix             string     `json:"prefix"`
	ProductID          *uint      `json:"product_id,omitempty"`
	RateLimitPerMinute int        `json:"rate_limit_per_minute"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

type CreateAPIKeyUseCase struct {
	repo      apikey.Repository
	products  product.Repository
	generator token.TokenGenerator
	logger    logger.Interface
}

func NewCreateAPIKeyUseCase(
	repo apikey.Repository,
	products product.Repository,
	generator token.TokenGenerator,
	logger logger.Interface,
) *CreateAPIKeyUseCase {
	return &CreateAPIKeyUseCase{
		repo:      repo,
		products:  products,
		generator: generator,
		logger:    logger,
	}
}

func (uc *CreateAPIKeyUseCase) Execute(ctx context.Context, cmd CreateAPIKeyCommand) (*CreateAPIKeyResult, error) {
	if cmd.ProductID != nil {
		p, err := uc.products.GetByID(ctx, *cmd.ProductID)
		if err != nil {
			return nil, errors.NewInternalError("failed to load product")
		}
		if p == nil {
			return nil, errors.NewNotFoundError("product not found")
		}
		if p.OwnerID() != cmd.OwnerID {
			return nil, errors.NewForbiddenError("product belongs to another account")
		}
	}

	prefix := token.PrefixLive
	if cmd.Test {
		prefix = token.PrefixTest
	}
	plain, hash, err := uc.generator.Generate(prefix)
	if err != nil {
		uc.logger.Errorw("failed to generate api key", "error", err)
		return nil, errors.NewInternalError("failed to generate api key")
	}

	key, err := apikey.NewAPIKey(apikey.NewAPIKeyParams{
		Name:               cmd.Name,
		KeyHash:            hash,
		Prefix:             token.DisplayPrefix(plain, prefix),
		OwnerID:            cmd.OwnerID,
		ProductID:          cmd.ProductID,
		AllowedIPs:         cmd.AllowedIPs,
		RateLimitPerMinute: cmd.RateLimitPerMinute,
		ExpiresAt:          cmd.ExpiresAt,
	})
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.repo.Create(ctx, key); err != nil {
		return nil, errors.NewInternalError("failed to store api key")
	}

	uc.logger.Infow("api key created", "api_key_id", key.ID(), "owner_id", key.OwnerID(), "prefix", key.Prefix())

	return &CreateAPIKeyResult{
		ID:                 key.ID(),
		Key:                plain,
		Prefix:             key.Prefix(),
		ProductID:          key.ProductID(),
		RateLimitPerMinute: key.RateLimitPerMinute(),
		ExpiresAt:          key.ExpiresAt(),
	}, nil
}
