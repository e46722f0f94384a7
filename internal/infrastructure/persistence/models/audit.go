package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

type AuditLogModel struct {
	ID        uint              `gorm:"primarykey"`
	OwnerID   uint              `gorm:"not null;index"`
	LicenseID *uint             `gorm:"index"`
	APIKeyID  *uint             `gorm:"column:api_key_id"`
	Action    string            `gorm:"not null;size:50;index"`
	IPAddress string            `gorm:"size:45"`
	Details   datatypes.JSONMap `gorm:"type:json"`
	CreatedAt time.Time         `gorm:"index"`
}

func (AuditLogModel) TableName() string {
	return constants.TableAuditLogs
}
