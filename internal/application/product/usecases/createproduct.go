package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type CreateProductCommand struct {
	OwnerID uint
	Name    string
	Slug    string
}

type CreateProductResult struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateProductUseCase struct {
	repo   product.Repository
	logger logger.Interface
}

func NewCreateProductUseCase(repo product.Repository, logger logger.Interface) *CreateProductUseCase {
	return &CreateProductUseCase{repo: repo, logger: logger}
}

func (uc *CreateProductUseCase) Execute(ctx context.Context, cmd CreateProductCommand) (*CreateProductResult, error) {
	p, err := product.NewProduct(cmd.OwnerID, cmd.Name, cmd.Slug)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		if stderrors.Is(err, product.ErrSlugExists) {
			return nil, errors.NewConflictError(err.Error(), cmd.Slug)
		}
		uc.logger.Errorw("failed to create product", "slug", cmd.Slug, "error", err)
		return nil, errors.NewInternalError("failed to create product")
	}

	uc.logger.Infow("product created", "product_id", p.ID(), "slug", p.Slug())
	return &CreateProductResult{
		ID:        p.ID(),
		Name:      p.Name(),
		Slug:      p.Slug(),
		CreatedAt: p.CreatedAt(),
	}, nil
}
