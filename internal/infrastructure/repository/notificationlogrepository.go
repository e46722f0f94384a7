package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/notification"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	apperrors "github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type NotificationLogRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewNotificationLogRepository(db *gorm.DB, logger logger.Interface) notification.LogRepository {
	return &NotificationLogRepositoryImpl{db: db, logger: logger}
}

func (r *NotificationLogRepositoryImpl) Exists(ctx context.Context, licenseID uint, kind notification.Kind) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.NotificationLogModel{}).
		Where("license_id = ? AND kind = ?", licenseID, string(kind)).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check notification log", "license_id", licenseID, "kind", kind, "error", err)
		return false, fmt.Errorf("failed to check notification log: %w", err)
	}
	return count > 0, nil
}

func (r *NotificationLogRepositoryImpl) Create(ctx context.Context, log *notification.Log) (bool, error) {
	model := &models.NotificationLogModel{
		LicenseID: log.LicenseID,
		Kind:      string(log.Kind),
		SentAt:    log.SentAt,
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return false, nil
		}
		r.logger.Errorw("failed to create notification log", "license_id", log.LicenseID, "kind", log.Kind, "error", err)
		return false, fmt.Errorf("failed to create notification log: %w", err)
	}
	log.ID = model.ID
	return true, nil
}
