package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/domain/webhook"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/db"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type WebhookRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewWebhookRepository(db *gorm.DB, logger logger.Interface) webhook.Repository {
	return &WebhookRepositoryImpl{db: db, logger: logger}
}

func (r *WebhookRepositoryImpl) Create(ctx context.Context, w *webhook.Webhook) error {
	model := &models.WebhookModel{
		OwnerID:   w.OwnerID(),
		URL:       w.URL(),
		Secret:    w.Secret(),
		Events:    w.Events(),
		IsActive:  w.IsActive(),
		CreatedAt: w.CreatedAt(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create webhook", "owner_id", w.OwnerID(), "error", err)
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	w.SetID(model.ID)
	r.logger.Infow("webhook created", "id", model.ID, "owner_id", model.OwnerID)
	return nil
}

func (r *WebhookRepositoryImpl) ListActiveByOwner(ctx context.Context, ownerID uint) ([]*webhook.Webhook, error) {
	var rows []models.WebhookModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list webhooks", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	out := make([]*webhook.Webhook, 0, len(rows))
	for _, m := range rows {
		out = append(out, webhook.ReconstructWebhook(m.ID, m.OwnerID, m.URL, m.Secret, m.Events, m.IsActive, m.CreatedAt))
	}
	return out, nil
}

type WebhookDeliveryRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewWebhookDeliveryRepository(db *gorm.DB, logger logger.Interface) webhook.DeliveryRepository {
	return &WebhookDeliveryRepositoryImpl{db: db, logger: logger}
}

func (r *WebhookDeliveryRepositoryImpl) Create(ctx context.Context, d *webhook.Delivery) error {
	model := &models.WebhookDeliveryModel{
		DeliveryID:   d.DeliveryID,
		WebhookID:    d.WebhookID,
		EventType:    d.EventType,
		Payload:      d.Payload,
		Attempt:      d.Attempt,
		StatusCode:   d.StatusCode,
		ResponseBody: d.ResponseBody,
		Success:      d.Success,
		Error:        d.Error,
		DurationMs:   d.DurationMs,
		CreatedAt:    d.CreatedAt,
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to record webhook delivery", "webhook_id", d.WebhookID, "error", err)
		return fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	d.ID = model.ID
	return nil
}

func (r *WebhookDeliveryRepositoryImpl) ListByWebhook(ctx context.Context, webhookID uint, limit int) ([]*webhook.Delivery, error) {
	var rows []models.WebhookDeliveryModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("webhook_id = ?", webhookID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list webhook deliveries", "webhook_id", webhookID, "error", err)
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}

	out := make([]*webhook.Delivery, 0, len(rows))
	for _, m := range rows {
		out = append(out, &webhook.Delivery{
			ID:           m.ID,
			DeliveryID:   m.DeliveryID,
			WebhookID:    m.WebhookID,
			EventType:    m.EventType,
			Payload:      m.Payload,
			Attempt:      m.Attempt,
			StatusCode:   m.StatusCode,
			ResponseBody: m.ResponseBody,
			Success:      m.Success,
			Error:        m.Error,
			DurationMs:   m.DurationMs,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out, nil
}
