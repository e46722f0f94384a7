package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	apperrors "github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type ProductRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewProductRepository(db *gorm.DB, logger logger.Interface) product.Repository {
	return &ProductRepositoryImpl{db: db, logger: logger}
}

func (r *ProductRepositoryImpl) Create(ctx context.Context, p *product.Product) error {
	model := &models.ProductModel{
		OwnerID:   p.OwnerID(),
		Name:      p.Name(),
		Slug:      p.Slug(),
		CreatedAt: p.CreatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return product.ErrSlugExists
		}
		r.logger.Errorw("failed to create product", "slug", p.Slug(), "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}

	p.SetID(model.ID)
	r.logger.Infow("product created", "id", model.ID, "slug", model.Slug)
	return nil
}

func (r *ProductRepositoryImpl) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *ProductRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getBy(ctx, "slug = ?", slug)
}

func (r *ProductRepositoryImpl) getBy(ctx context.Context, query string, arg interface{}) (*product.Product, error) {
	var model models.ProductModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get product", "query", query, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product.ReconstructProduct(model.ID, model.OwnerID, model.Name, model.Slug, model.CreatedAt), nil
}
