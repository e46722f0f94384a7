package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

// ProductModel is the persistence model for products
type ProductModel struct {
	ID        uint   `gorm:"primarykey"`
	OwnerID   uint   `gorm:"not null;index"`
	Name      string `gorm:"not null;size:255"`
	Slug      string `gorm:"uniqueIndex;not null;size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string {
	return constants.TableProducts
}

// LicenseModel is the persistence model for licenses.
// CurrentActivations is maintained by the activation ledger only.
type LicenseModel struct {
	ID                 uint                        `gorm:"primarykey"`
	LicenseKey         string                      `gorm:"uniqueIndex;not null;size:64"`
	ProductID          uint                        `gorm:"not null;index"`
	OwnerID            uint                        `gorm:"not null;index"`
	CustomerName       string                      `gorm:"size:255"`
	CustomerEmail      string                      `gorm:"size:255"`
	Type               string                      `gorm:"not null;size:20"`
	Status             string                      `gorm:"not null;size:20;index:idx_license_status_expiry,priority:1"`
	MaxActivations     int                         `gorm:"not null;default:1"`
	CurrentActivations int                         `gorm:"not null;default:0"`
	AllowedDomains     datatypes.JSONSlice[string] `gorm:"type:json"`
	ExpiresAt          *time.Time                  `gorm:"index:idx_license_status_expiry,priority:2"`
	Metadata           datatypes.JSONMap           `gorm:"type:json"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (LicenseModel) TableName() string {
	return constants.TableLicenses
}

// ActivationModel is the persistence model for machine activations.
// (license_id, machine_id) is unique; a released slot keeps its row with
// IsActive=false and is reused when the machine activates again.
type ActivationModel struct {
	ID            uint      `gorm:"primarykey"`
	LicenseID     uint      `gorm:"not null;uniqueIndex:idx_activation_license_machine,priority:1"`
	MachineID     string    `gorm:"not null;size:255;uniqueIndex:idx_activation_license_machine,priority:2"`
	Hostname      string    `gorm:"size:255"`
	IPAddress     string    `gorm:"size:45"`
	IsActive      bool      `gorm:"not null;default:true;index"`
	ActivatedAt   time.Time `gorm:"not null"`
	LastSeenAt    time.Time `gorm:"not null"`
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	License *LicenseModel `gorm:"foreignKey:LicenseID;constraint:OnDelete:CASCADE"`
}

func (ActivationModel) TableName() string {
	return constants.TableActivations
}
