package models

import (
	"time"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

// NotificationLogModel guards against sending the same notice twice.
type NotificationLogModel struct {
	ID        uint      `gorm:"primarykey"`
	LicenseID uint      `gorm:"not null;uniqueIndex:idx_notification_license_kind,priority:1"`
	Kind      string    `gorm:"not null;size:32;uniqueIndex:idx_notification_license_kind,priority:2"`
	SentAt    time.Time `gorm:"not null"`
}

func (NotificationLogModel) TableName() string {
	return constants.TableNotificationLogs
}

// All returns every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&ProductModel{},
		&LicenseModel{},
		&ActivationModel{},
		&APIKeyModel{},
		&AuditLogModel{},
		&WebhookModel{},
		&WebhookDeliveryModel{},
		&NotificationLogModel{},
	}
}
