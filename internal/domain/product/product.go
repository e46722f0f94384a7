package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSlugExists      = errors.New("product slug already exists")
	ErrInvalidSlug     = errors.New("slug must be lowercase letters, digits and dashes")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Product is the software a license is issued for.
type Product struct {
	id        uint
	ownerID   uint
	name      string
	slug      string
	createdAt time.Time
}

func NewProduct(ownerID uint, name, slug string) (*Product, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if !slugPattern.MatchString(slug) || len(slug) > 64 {
		return nil, ErrInvalidSlug
	}
	return &Product{
		ownerID:   ownerID,
		name:      name,
		slug:      slug,
		createdAt: time.Now().UTC(),
	}, nil
}

func ReconstructProduct(id, ownerID uint, name, slug string, createdAt time.Time) *Product {
	return &Product{id: id, ownerID: ownerID, name: name, slug: slug, createdAt: createdAt}
}

func (p *Product) ID() uint             { return p.id }
func (p *Product) OwnerID() uint        { return p.ownerID }
func (p *Product) Name() string         { return p.name }
func (p *Product) Slug() string         { return p.slug }
func (p *Product) CreatedAt() time.Time { return p.createdAt }

func (p *Product) SetID(id uint) {
	p.id = id
}

// Repository returns nil, nil for missing products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
}
