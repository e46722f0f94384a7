package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type APIKeyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewAPIKeyRepository(db *gorm.DB, logger logger.Interface) apikey.Repository {
	return &APIKeyRepositoryImpl{db: db, logger: logger}
}

func (r *APIKeyRepositoryImpl) Create(ctx context.Context, key *apikey.APIKey) error {
	model := &models.APIKeyModel{
		Name:               key.Name(),
		KeyHash:            key.KeyHash(),
		Prefix:             key.Prefix(),
		OwnerID:            key.OwnerID(),
		ProductID:          key.ProductID(),
		IsActive:           key.IsActive(),
		AllowedIPs:         key.AllowedIPs(),
		RateLimitPerMinute: key.RateLimitPerMinute(),
		ExpiresAt:          key.ExpiresAt(),
		CreatedAt:          key.CreatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create api key", "owner_id", key.OwnerID(), "error", err)
		return fmt.Errorf("failed to create api key: %w", err)
	}

	key.SetID(model.ID)
	r.logger.Infow("api key created", "id", model.ID, "prefix", model.Prefix)
	return nil
}

func (r *APIKeyRepositoryImpl) GetByHash(ctx context.Context, keyHash string) (*apikey.APIKey, error) {
	var model models.APIKeyModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("key_hash = ?", keyHash).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get api key by hash", "error", err)
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return apiKeyToEntity(&model), nil
}

func (r *APIKeyRepositoryImpl) GetByID(ctx context.Context, id uint) (*apikey.APIKey, error) {
	var model models.APIKeyModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get api key", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return apiKeyToEntity(&model), nil
}

func (r *APIKeyRepositoryImpl) UpdateLastUsedAt(ctx context.Context, id uint, at time.Time) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.APIKeyModel{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error; err != nil {
		r.logger.Warnw("failed to update api key last used", "id", id, "error", err)
		return fmt.Errorf("failed to update api key last used: %w", err)
	}
	return nil
}

func (r *APIKeyRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.APIKeyModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		r.logger.Errorw("failed to set api key state", "id", id, "error", result.Error)
		return fmt.Errorf("failed to set api key state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apikey.ErrAPIKeyNotFound
	}
	return nil
}

func apiKeyToEntity(m *models.APIKeyModel) *apikey.APIKey {
	return apikey.ReconstructAPIKey(apikey.ReconstructAPIKeyParams{
		ID:                 m.ID,
		Name:               m.Name,
		KeyHash:            m.KeyHash,
		Prefix:             m.Prefix,
		OwnerID:            m.OwnerID,
		ProductID:          m.ProductID,
		IsActive:           m.IsActive,
		AllowedIPs:         m.AllowedIPs,
		RateLimitPerMinute: m.RateLimitPerMinute,
		ExpiresAt:          m.ExpiresAt,
		LastUsedAt:         m.LastUsedAt,
		CreatedAt:          m.CreatedAt,
	})
}
