package usecases

import (
	"context"
	"time"

	"github.com/licensegate/licensegate/internal/domain/license"
	"github.com/licensegate/licensegate/internal/domain/webhook"
	"github.com/licensegate/licensegate/internal/shared/errors"
	"github.com/licensegate/licensegate/internal/shared/id"
	"github.com/licensegate/licensegate/internal/shared/logger"
	"github.com/licensegate/licensegate/internal/shared/utils"
)

const secretBytes = 24

type CreateWebhookCommand struct {
	OwnerID uint
	URL     string
	Events  []string
	// Secret signs deliveries; GenerateSecret creates one when empty.
	Secret         string
	GenerateSecret bool
}

type CreateWebhookResult struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateWebhookUseCase struct {
	repo   webhook.Repository
	logger logger.Interface
}

func NewCreateWebhookUseCase(repo webhook.Repository, logger logger.Interface) *CreateWebhookUseCase {
	return &CreateWebhookUseCase{repo: repo, logger: logger}
}

func (uc *CreateWebhookUseCase) Execute(ctx context.Context, cmd CreateWebhookCommand) (*CreateWebhookResult, error) {
	if err := utils.ValidateWebhookURL(cmd.URL); err != nil {
		return nil, err
	}

	secret := cmd.Secret
	if secret == "" && cmd.GenerateSecret {
		generated, err := id.RandomHex(secretBytes)
		if err != nil {
			return nil, errors.NewInternalError("failed to generate webhook secret")
		}
		secret = "whsec_" + generated
	}

	w, err := webhook.NewWebhook(cmd.OwnerID, cmd.URL, secret, cmd.Events, license.AllEventTypes)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.repo.Create(ctx, w); err != nil {
		uc.logger.Errorw("failed to create webhook", "owner_id", cmd.OwnerID, "error", err)
		return nil, errors.NewInternalError("failed to create webhook")
	}

	uc.logger.Infow("webhook created", "webhook_id", w.ID(), "owner_id", w.OwnerID(), "events", w.Events())
	return &CreateWebhookResult{
		ID:        w.ID(),
		URL:       w.URL(),
		Events:    w.Events(),
		Secret:    secret,
		CreatedAt: w.CreatedAt(),
	}, nil
}
