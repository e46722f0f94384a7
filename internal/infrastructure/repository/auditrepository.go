package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type AuditRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAuditRepository(db *gorm.DB, logger logger.Interface) audit.Repository {
	return &AuditRepositoryImpl{db: db, logger: logger}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, e *audit.Entry) error {
	model := &models.AuditLogModel{
		OwnerID:   e.OwnerID,
		LicenseID: e.LicenseID,
		APIKeyID:  e.APIKeyID,
		Action:    string(e.Action),
		IPAddress: e.IPAddress,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to write audit entry", "action", e.Action, "error", err)
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	e.ID = model.ID
	return nil
}

// ListByLicense returns the newest entries first.
func (r *AuditRepositoryImpl) ListByLicense(ctx context.Context, licenseID uint, limit int) ([]*audit.Entry, error) {
	var rows []models.AuditLogModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("license_id = ?", licenseID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list audit entries", "license_id", licenseID, "error", err)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	out := make([]*audit.Entry, 0, len(rows))
	for _, m := range rows {
		out = append(out, &audit.Entry{
			ID:        m.ID,
			OwnerID:   m.OwnerID,
			LicenseID: m.LicenseID,
			APIKeyID:  m.APIKeyID,
			Action:    audit.Action(m.Action),
			IPAddress: m.IPAddress,
			Details:   m.Details,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
