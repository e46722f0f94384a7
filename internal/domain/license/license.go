package license

import (
	"fmt"
	"time"

	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
)

// License is the aggregate root for an issued license key.
// currentActivations mirrors the number of active Activation rows; it is
// only moved by the activation ledger, never recomputed here.
type License struct {
	id                 uint
	licenseKey         string
	productID          uint
	ownerID            uint
	customerName       string
	customerEmail      string
	licenseType        vo.LicenseType
	status             vo.LicenseStatus
	maxActivations     int
	currentActivations int
	allowedDomains     vo.DomainList
	expiresAt          *time.Time
	metadata           map[string]any
	createdAt          time.Time
	updatedAt          time.Time
}

// NewLicenseParams holds the inputs for issuing a new license.
type NewLicenseParams struct {
	LicenseKey     string
	ProductID      uint
	OwnerID        uint
	CustomerName   string
	CustomerEmail  string
	Type           vo.LicenseType
	MaxActivations int
	AllowedDomains []string
	ExpiresAt      *time.Time
	Metadata       map[string]any
}

func NewLicense(p NewLicenseParams) (*License, error) {
	if p.LicenseKey == "" {
		return nil, fmt.Errorf("license key is required")
	}
	if p.ProductID == 0 {
		return nil, fmt.Errorf("product ID is required")
	}
	if p.OwnerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	if !vo.ValidTypes[p.Type] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLicenseType, p.Type)
	}
	if p.MaxActivations < 1 {
		return nil, ErrInvalidMaxActivations
	}

	now := time.Now().UTC()
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return nil, fmt.Errorf("expiry must be in the future")
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &License{
		licenseKey:     p.LicenseKey,
		productID:      p.ProductID,
		ownerID:        p.OwnerID,
		customerName:   p.CustomerName,
		customerEmail:  p.CustomerEmail,
		licenseType:    p.Type,
		status:         vo.StatusActive,
		maxActivations: p.MaxActivations,
		allowedDomains: vo.NewDomainList(p.AllowedDomains),
		expiresAt:      p.ExpiresAt,
		metadata:       metadata,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructLicenseParams carries persisted state back into the aggregate.
type ReconstructLicenseParams struct {
	ID                 uint
	LicenseKey         string
	ProductID          uint
	OwnerID            uint
	CustomerName       string
	CustomerEmail      string
	Type               vo.LicenseType
	Status             vo.LicenseStatus
	MaxActivations     int
	CurrentActivations int
	AllowedDomains     []string
	ExpiresAt          *time.Time
	Metadata           map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func ReconstructLicense(p ReconstructLicenseParams) (*License, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("license ID cannot be zero")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid license status: %s", p.Status)
	}
	if !vo.ValidTypes[p.Type] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLicenseType, p.Type)
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &License{
		id:                 p.ID,
		licenseKey:         p.LicenseKey,
		productID:          p.ProductID,
		ownerID:            p.OwnerID,
		customerName:       p.CustomerName,
		customerEmail:      p.CustomerEmail,
		licenseType:        p.Type,
		status:             p.Status,
		maxActivations:     p.MaxActivations,
		currentActivations: p.CurrentActivations,
		allowedDomains:     vo.NewDomainList(p.AllowedDomains),
		expiresAt:          p.ExpiresAt,
		metadata:           metadata,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
	}, nil
}

func (l *License) ID() uint                      { return l.id }
func (l *License) LicenseKey() string            { return l.licenseKey }
func (l *License) ProductID() uint               { return l.productID }
func (l *License) OwnerID() uint                 { return l.ownerID }
func (l *License) CustomerName() string          { return l.customerName }
func (l *License) CustomerEmail() string         { return l.customerEmail }
func (l *License) Type() vo.LicenseType          { return l.licenseType }
func (l *License) Status() vo.LicenseStatus      { return l.status }
func (l *License) MaxActivations() int           { return l.maxActivations }
func (l *License) CurrentActivations() int       { return l.currentActivations }
func (l *License) AllowedDomains() vo.DomainList { return l.allowedDomains }
func (l *License) ExpiresAt() *time.Time         { return l.expiresAt }
func (l *License) Metadata() map[string]any      { return l.metadata }
func (l *License) CreatedAt() time.Time          { return l.createdAt }
func (l *License) UpdatedAt() time.Time          { return l.updatedAt }

// SetID sets the license ID (only for persistence layer use)
func (l *License) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("license ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("license ID cannot be zero")
	}
	l.id = id
	return nil
}

// IsExpiredAt reports whether the expiry date has passed at now. Licenses
// without an expiry never expire.
func (l *License) IsExpiredAt(now time.Time) bool {
	return l.expiresAt != nil && now.After(*l.expiresAt)
}

// ExpiresWithin reports whether the license is still active and expires in
// the half-open interval (now, now+d].
func (l *License) ExpiresWithin(now time.Time, d time.Duration) bool {
	if l.expiresAt == nil || !l.status.IsActive() {
		return false
	}
	return l.expiresAt.After(now) && !l.expiresAt.After(now.Add(d))
}

func (l *License) AllowsDomain(domain string) bool {
	return l.allowedDomains.Allows(domain)
}

func (l *License) HasFreeSlot() bool {
	return l.currentActivations < l.maxActivations
}

// BelongsToProduct reports whether ref names this license's product, either
// by numeric id or by slug.
func (l *License) BelongsToProduct(ref, productSlug string) bool {
	if ref == "" {
		return true
	}
	if ref == fmt.Sprintf("%d", l.productID) {
		return true
	}
	return productSlug != "" && ref == productSlug
}

// MarkExpired performs the active -> expired transition.
func (l *License) MarkExpired() error {
	return l.transitionTo(vo.StatusExpired)
}

func (l *License) Revoke() error {
	return l.transitionTo(vo.StatusRevoked)
}

func (l *License) Suspend() error {
	return l.transitionTo(vo.StatusSuspended)
}

// Reinstate is the admin override that returns a license to active. A new
// expiry may be supplied; a license whose expiry has passed cannot be
// reinstated without one.
func (l *License) Reinstate(newExpiresAt *time.Time) error {
	if l.status.IsActive() {
		return nil
	}
	now := time.Now().UTC()
	if newExpiresAt != nil {
		if !newExpiresAt.After(now) {
			return fmt.Errorf("expiry must be in the future")
		}
		l.expiresAt = newExpiresAt
	}
	if l.IsExpiredAt(now) {
		return ErrReinstateExpired
	}
	l.status = vo.StatusActive
	l.updatedAt = now
	return nil
}

func (l *License) transitionTo(target vo.LicenseStatus) error {
	if l.status == target {
		return nil
	}
	if !l.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, l.status, target)
	}
	l.status = target
	l.updatedAt = time.Now().UTC()
	return nil
}
