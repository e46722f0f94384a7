package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

// APIKeyModel stores the sha256 of the key secret, never the secret.
type APIKeyModel struct {
	ID                 uint                        `gorm:"primarykey"`
	Name               string                      `gorm:"size:100"`
	KeyHash            string                      `gorm:"uniqueIndex;not null;size:64"`
	Prefix             string                      `gorm:"not null;size:16"`
	OwnerID            uint                        `gorm:"not null;index"`
	ProductID          *uint                       `gorm:"index"`
	IsActive           bool                        `gorm:"not null;default:true"`
	AllowedIPs         datatypes.JSONSlice[string] `gorm:"type:json"`
	RateLimitPerMinute int                         `gorm:"not null;default:60"`
	ExpiresAt          *time.Time
	LastUsedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (APIKeyModel) TableName() string {
	return constants.TableAPIKeys
}
