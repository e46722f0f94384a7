package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/license"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	apperrors "github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

// LicenseRepositoryImpl implements license.Repository with GORM.
type LicenseRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewLicenseRepository(db *gorm.DB, logger logger.Interface) license.Repository {
	return &LicenseRepositoryImpl{db: db, logger: logger}
}

func (r *LicenseRepositoryImpl) Create(ctx context.Context, l *license.License) error {
	model := licenseToModel(l)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return license.ErrLicenseKeyExists
		}
		r.logger.Errorw("failed to create license", "product_id", l.ProductID(), "error", err)
		return fmt.Errorf("failed to create license: %w", err)
	}

	if err := l.SetID(model.ID); err != nil {
		return err
	}

	r.logger.Infow("license created", "id", model.ID, "product_id", model.ProductID, "type", model.Type)
	return nil
}

func (r *LicenseRepositoryImpl) GetByID(ctx context.Context, id uint) (*license.License, error) {
	var model models.LicenseModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get license by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return licenseToEntity(&model)
}

func (r *LicenseRepositoryImpl) GetByKey(ctx context.Context, key string) (*license.License, error) {
	var model models.LicenseModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("license_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get license by key", "error", err)
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return licenseToEntity(&model)
}

func (r *LicenseRepositoryImpl) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.LicenseModel{}).Where("license_key = ?", key).Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check license key", "error", err)
		return false, fmt.Errorf("failed to check license key: %w", err)
	}
	return count > 0, nil
}

func (r *LicenseRepositoryImpl) UpdateStatus(ctx context.Context, l *license.License) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.LicenseModel{}).
		Where("id = ?", l.ID()).
		Updates(map[string]interface{}{
			"status":     l.Status().String(),
			"expires_at": l.ExpiresAt(),
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update license status", "id", l.ID(), "error", result.Error)
		return fmt.Errorf("failed to update license status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return license.ErrLicenseNotFound
	}

	r.logger.Infow("license status updated", "id", l.ID(), "status", l.Status())
	return nil
}

func (r *LicenseRepositoryImpl) TransitionStatus(ctx context.Context, id uint, from, to vo.LicenseStatus) (bool, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.LicenseModel{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(map[string]interface{}{
			"status":     to.String(),
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to transition license status", "id", id, "from", from, "to", to, "error", result.Error)
		return false, fmt.Errorf("failed to transition license status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindOverdue returns active licenses whose expiry lies before now.
func (r *LicenseRepositoryImpl) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*license.License, error) {
	var rows []models.LicenseModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", vo.StatusActive.String(), now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to find overdue licenses", "error", err)
		return nil, fmt.Errorf("failed to find overdue licenses: %w", err)
	}

	return licensesToEntities(rows)
}

// FindExpiringBetween returns active licenses expiring in (from, to] with
// id > afterID, ordered by id so callers can page with the last id seen.
func (r *LicenseRepositoryImpl) FindExpiringBetween(ctx context.Context, from, to time.Time, afterID uint, limit int) ([]*license.License, error) {
	var rows []models.LicenseModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("status = ? AND expires_at > ? AND expires_at <= ? AND id > ?", vo.StatusActive.String(), from, to, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to find expiring licenses", "error", err)
		return nil, fmt.Errorf("failed to find expiring licenses: %w", err)
	}

	return licensesToEntities(rows)
}

func (r *LicenseRepositoryImpl) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Delete(&models.LicenseModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete license", "id", id, "error", result.Error)
		return fmt.Errorf("failed to delete license: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return license.ErrLicenseNotFound
	}
	return nil
}

func licenseToModel(l *license.License) *models.LicenseModel {
	return &models.LicenseModel{
		ID:                 l.ID(),
		LicenseKey:         l.LicenseKey(),
		ProductID:          l.ProductID(),
		OwnerID:            l.OwnerID(),
		CustomerName:       l.CustomerName(),
		CustomerEmail:      l.CustomerEmail(),
		Type:               l.Type().String(),
		Status:             l.Status().String(),
		MaxActivations:     l.MaxActivations(),
		CurrentActivations: l.CurrentActivations(),
		AllowedDomains:     l.AllowedDomains().Strings(),
		ExpiresAt:          l.ExpiresAt(),
		Metadata:           l.Metadata(),
		CreatedAt:          l.CreatedAt(),
		UpdatedAt:          l.UpdatedAt(),
	}
}

func licenseToEntity(m *models.LicenseModel) (*license.License, error) {
	l, err := license.ReconstructLicense(license.ReconstructLicenseParams{
		ID:                 m.ID,
		LicenseKey:         m.LicenseKey,
		ProductID:          m.ProductID,
		OwnerID:            m.OwnerID,
		CustomerName:       m.CustomerName,
		CustomerEmail:      m.CustomerEmail,
		Type:               vo.LicenseType(m.Type),
		Status:             vo.LicenseStatus(m.Status),
		MaxActivations:     m.MaxActivations,
		CurrentActivations: m.CurrentActivations,
		AllowedDomains:     m.AllowedDomains,
		ExpiresAt:          m.ExpiresAt,
		Metadata:           m.Metadata,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to map license %d: %w", m.ID, err)
	}
	return l, nil
}

func licensesToEntities(rows []models.LicenseModel) ([]*license.License, error) {
	out := make([]*license.License, 0, len(rows))
	for i := range rows {
		l, err := licenseToEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
