package apikey

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultRateLimitPerMinute applies to keys without an explicit limit and to
// credentials that do not resolve to a key.
const DefaultRateLimitPerMinute = 60

var (
	ErrAPIKeyNotFound  = errors.New("api key not found")
	ErrInvalidAllowIP  = errors.New("allowed IP must be an address or CIDR range")
	ErrInvalidRateRule = errors.New("rate limit must be positive")
)

// APIKey authenticates calls to the license protocol surface. Only the
// sha256 hash of the secret is kept.
type APIKey struct {
	id                 uint
	name               string
	keyHash            string
	prefix             string
	ownerID            uint
	productID          *uint
	isActive           bool
	allowedIPs         []string
	rateLimitPerMinute int
	expiresAt          *time.Time
	lastUsedAt         *time.Time
	createdAt          time.Time
}

type NewAPIKeyParams struct {
	Name               string
	KeyHash            string
	Prefix             string
	OwnerID            uint
	ProductID          *uint
	AllowedIPs         []string
	RateLimitPerMinute int
	ExpiresAt          *time.Time
}

func NewAPIKey(p NewAPIKeyParams) (*APIKey, error) {
	if p.KeyHash == "" {
		return nil, fmt.Errorf("key hash is required")
	}
	if p.OwnerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	if p.RateLimitPerMinute < 0 {
		return nil, ErrInvalidRateRule
	}
	for _, entry := range p.AllowedIPs {
		if !validAllowEntry(entry) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAllowIP, entry)
		}
	}
	limit := p.RateLimitPerMinute
	if limit == 0 {
		limit = DefaultRateLimitPerMinute
	}
	return &APIKey{
		name:               p.Name,
		keyHash:            p.KeyHash,
		prefix:             p.Prefix,
		ownerID:            p.OwnerID,
		productID:          p.ProductID,
		isActive:           true,
		allowedIPs:         p.AllowedIPs,
		rateLimitPerMinute: limit,
		expiresAt:          p.ExpiresAt,
		createdAt:          time.Now().UTC(),
	}, nil
}

type ReconstructAPIKeyParams struct {
	ID                 uint
	Name               string
	KeyHash            string
	Prefix             string
	OwnerID            uint
	ProductID          *uint
	IsActive           bool
	AllowedIPs         []string
	RateLimitPerMinute int
	ExpiresAt          *time.Time
	LastUsedAt         *time.Time
	CreatedAt          time.Time
}

func ReconstructAPIKey(p ReconstructAPIKeyParams) *APIKey {
	return &APIKey{
		id:                 p.ID,
		name:               p.Name,
		keyHash:            p.KeyHash,
		prefix:             p.Prefix,
		ownerID:            p.OwnerID,
		productID:          p.ProductID,
		isActive:           p.IsActive,
		allowedIPs:         p.AllowedIPs,
		rateLimitPerMinute: p.RateLimitPerMinute,
		expiresAt:          p.ExpiresAt,
		lastUsedAt:         p.LastUsedAt,
		createdAt:          p.CreatedAt,
	}
}

func (k *APIKey) ID() uint               { return k.id }
func (k *APIKey) Name() string           { return k.name }
func (k *APIKey) KeyHash() string        { return k.keyHash }
func (k *APIKey) Prefix() string         { return k.prefix }
func (k *APIKey) OwnerID() uint          { return k.ownerID }
func (k *APIKey) ProductID() *uint       { return k.productID }
func (k *APIKey) IsActive() bool         { return k.isActive }
func (k *APIKey) AllowedIPs() []string   { return k.allowedIPs }
func (k *APIKey) ExpiresAt() *time.Time  { return k.expiresAt }
func (k *APIKey) LastUsedAt() *time.Time { return k.lastUsedAt }
func (k *APIKey) CreatedAt() time.Time   { return k.createdAt }

func (k *APIKey) SetID(id uint) {
	k.id = id
}

// RateLimitPerMinute never returns less than one request.
func (k *APIKey) RateLimitPerMinute() int {
	if k.rateLimitPerMinute <= 0 {
		return DefaultRateLimitPerMinute
	}
	return k.rateLimitPerMinute
}

func (k *APIKey) IsExpiredAt(now time.Time) bool {
	return k.expiresAt != nil && now.After(*k.expiresAt)
}

// IsProductScoped reports whether the key is limited to a single product.
func (k *APIKey) IsProductScoped() bool {
	return k.productID != nil
}

// CanAccessProduct is true for unscoped keys and for the scoped product.
func (k *APIKey) CanAccessProduct(productID uint) bool {
	return k.productID == nil || *k.productID == productID
}

// AllowsIP checks the client address against the allow-list. Entries are
// exact addresses or CIDR ranges; an empty list allows everything.
func (k *APIKey) AllowsIP(clientIP string) bool {
	if len(k.allowedIPs) == 0 {
		return true
	}
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil {
		return false
	}
	for _, entry := range k.allowedIPs {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil && network.Contains(ip) {
				return true
			}
			continue
		}
		if allowed := net.ParseIP(entry); allowed != nil && allowed.Equal(ip) {
			return true
		}
	}
	return false
}

func (k *APIKey) Deactivate() {
	k.isActive = false
}

func validAllowEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}

// Repository returns nil, nil when a key does not exist.
type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)
	GetByID(ctx context.Context, id uint) (*APIKey, error)
	UpdateLastUsedAt(ctx context.Context, id uint, at time.Time) error
	SetActive(ctx context.Context, id uint, active bool) error
}
