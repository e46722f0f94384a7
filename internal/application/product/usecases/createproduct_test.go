package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.SetID(5)
	}
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func TestCreateProduct(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(product.ErrSlugExists)

	uc := NewCreateProductUseCase(repo, logger.NewNopLogger())

	res, err := uc.Execute(t.Context(), CreateProductCommand{OwnerID: 1, Name: "Acme Editor", Slug: "acme-editor"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), res.ID)

	_, err = uc.Execute(t.Context(), CreateProductCommand{OwnerID: 1, Name: "Acme Editor", Slug: "acme-editor"})
	assert.Equal(t, errors.ErrorTypeConflict, errors.GetAppError(err).Type)

	_, err = uc.Execute(t.Context(), CreateProductCommand{OwnerID: 1, Name: "Acme", Slug: "Acme Editor"})
	assert.True(t, errors.IsValidationError(err))
}
