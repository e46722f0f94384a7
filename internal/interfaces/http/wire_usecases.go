package http

import (
	apikeyUsecases "github.com/licensegate/licensegate/internal/application/apikey/usecases"
	licenseUsecases "github.com/licensegate/licensegate/internal/application/license/usecases"
	notificationUsecases "github.com/licensegate/licensegate/internal/application/notification/usecases"
	productUsecases "github.com/licensegate/licensegate/internal/application/product/usecases"
	webhookUsecases "github.com/licensegate/licensegate/internal/application/webhook/usecases"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/email"
	"github.com/licensegate/licensegate/internal/infrastructure/telegram"
	"github.com/licensegate/licensegate/internal/infrastructure/webhook"
)

// allUseCases holds every use case instance
type allUseCases struct {
	// Protocol
	validateLicense   *licenseUsecases.ValidateLicenseUseCase
	activateLicense   *licenseUsecases.ActivateLicenseUseCase
	deactivateLicense *licenseUsecases.DeactivateLicenseUseCase
	getLicenseInfo    *licenseUsecases.GetLicenseInfoUseCase
	issueNonce        *licenseUsecases.IssueNonceUseCase
	verifyToken       *licenseUsecases.VerifyTokenUseCase
	authenticateKey   *apikeyUsecases.AuthenticateAPIKeyUseCase

	// Maintenance
	expireLicenses *licenseUsecases.ExpireLicensesUseCase
	sendReminders  *licenseUsecases.SendExpiryRemindersUseCase

	// Administration
	issueLicense   *licenseUsecases.IssueLicenseUseCase
	changeStatus   *licenseUsecases.ChangeLicenseStatusUseCase
	createAPIKey   *apikeyUsecases.CreateAPIKeyUseCase
	setAPIKeyState *apikeyUsecases.SetAPIKeyStateUseCase
	createProduct  *productUsecases.CreateProductUseCase
	createWebhook  *webhookUsecases.CreateWebhookUseCase
}

// AdminUseCases exposes the operations the CLI drives.
type AdminUseCases struct {
	IssueLicense   *licenseUsecases.IssueLicenseUseCase
	ChangeStatus   *licenseUsecases.ChangeLicenseStatusUseCase
	CreateAPIKey   *apikeyUsecases.CreateAPIKeyUseCase
	SetAPIKeyState *apikeyUsecases.SetAPIKeyStateUseCase
	CreateProduct  *productUsecases.CreateProductUseCase
	CreateWebhook  *webhookUsecases.CreateWebhookUseCase
	ExpireLicenses *licenseUsecases.ExpireLicensesUseCase
	SendReminders  *licenseUsecases.SendExpiryRemindersUseCase
}

func (c *Container) initUseCases() {
	r := c.repos
	publisher := c.dispatcher
	authenticateKey := apikeyUsecases.NewAuthenticateAPIKeyUseCase(r.apiKeys, r.tokens, c.metrics, c.log).
		WithDefaultRateLimit(c.cfg.RateLimit.DefaultPerMinute)

	c.ucs = &allUseCases{
		validateLicense: licenseUsecases.NewValidateLicenseUseCase(
			r.licenses, r.ledger, r.products, c.nonces, c.signer, publisher, r.audit, c.metrics, c.log,
		),
		activateLicense: licenseUsecases.NewActivateLicenseUseCase(
			r.licenses, r.ledger, publisher, r.audit, c.metrics, c.log,
		),
		deactivateLicense: licenseUsecases.NewDeactivateLicenseUseCase(
			r.licenses, r.ledger, publisher, r.audit, c.metrics, c.log,
		),
		getLicenseInfo:  licenseUsecases.NewGetLicenseInfoUseCase(r.licenses, r.products, c.log),
		issueNonce:      licenseUsecases.NewIssueNonceUseCase(c.nonces, c.metrics, c.log),
		verifyToken:     licenseUsecases.NewVerifyTokenUseCase(c.signer),
		authenticateKey: authenticateKey,

		expireLicenses: licenseUsecases.NewExpireLicensesUseCase(r.licenses, publisher, c.metrics, c.log),
		sendReminders: licenseUsecases.NewSendExpiryRemindersUseCase(
			r.licenses, r.notifications, publisher, c.cfg.Scheduler.ReminderDays, c.log,
		),

		issueLicense:   licenseUsecases.NewIssueLicenseUseCase(r.licenses, r.products, r.audit, c.cfg.Security.LicenseKeyPrefix, c.log),
		changeStatus:   licenseUsecases.NewChangeLicenseStatusUseCase(r.licenses, r.audit, c.log),
		createAPIKey:   apikeyUsecases.NewCreateAPIKeyUseCase(r.apiKeys, r.products, r.tokens, c.log),
		setAPIKeyState: apikeyUsecases.NewSetAPIKeyStateUseCase(r.apiKeys, authenticateKey, c.log),
		createProduct:  productUsecases.NewCreateProductUseCase(r.products, c.log),
		createWebhook:  webhookUsecases.NewCreateWebhookUseCase(r.webhooks, c.log),
	}
}

// Admin returns the administrative use cases.
func (c *Container) Admin() AdminUseCases {
	return AdminUseCases{
		IssueLicense:   c.ucs.issueLicense,
		ChangeStatus:   c.ucs.changeStatus,
		CreateAPIKey:   c.ucs.createAPIKey,
		SetAPIKeyState: c.ucs.setAPIKeyState,
		CreateProduct:  c.ucs.createProduct,
		CreateWebhook:  c.ucs.createWebhook,
		ExpireLicenses: c.ucs.expireLicenses,
		SendReminders:  c.ucs.sendReminders,
	}
}

// eventHandlers lists the subscribers of license events: webhook delivery,
// the operator chat and customer expiry mails.
func (c *Container) eventHandlers() []events.EventHandler {
	dispatcher := webhook.NewDispatcher(
		c.repos.webhooks,
		c.repos.deliveries,
		webhook.Config{
			Timeout:  c.cfg.Webhook.Timeout,
			MaxTries: uint(max(c.cfg.Webhook.MaxRetries, 0)),
		},
		c.metrics,
		c.log,
	)

	handlers := []events.EventHandler{dispatcher}

	chat := telegram.NewNotifier(c.cfg.Telegram)
	if chat.Enabled() {
		handlers = append(handlers, notificationUsecases.NewOwnerNotifier(chat, c.metrics, c.log))
	}

	mailer := email.NewSMTPEmailService(c.cfg.Email)
	if mailer.Enabled() {
		handlers = append(handlers, notificationUsecases.NewCustomerReminder(mailer, c.metrics, c.log))
	}

	return handlers
}
