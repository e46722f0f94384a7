package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

type WebhookModel struct {
	ID        uint                        `gorm:"primarykey"`
	OwnerID   uint                        `gorm:"not null;index"`
	URL       string                      `gorm:"not null;size:2048"`
	Secret    string                      `gorm:"size:255"`
	Events    datatypes.JSONSlice[string] `gorm:"type:json"`
	IsActive  bool                        `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WebhookModel) TableName() string {
	return constants.TableWebhooks
}

type WebhookDeliveryModel struct {
	ID           uint   `gorm:"primarykey"`
	DeliveryID   string `gorm:"not null;size:36;index"`
	WebhookID    uint   `gorm:"not null;index"`
	EventType    string `gorm:"not null;size:50"`
	Payload      string `gorm:"type:text"`
	Attempt      int    `gorm:"not null"`
	StatusCode   int
	ResponseBody string `gorm:"type:text"`
	Success      bool   `gorm:"not null;default:false"`
	Error        string `gorm:"size:1000"`
	DurationMs   int64
	CreatedAt    time.Time `gorm:"index"`
}

func (WebhookDeliveryModel) TableName() string {
	return constants.TableWebhookDeliveries
}
