package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/notification"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/domain/webhook"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

func TestProductRepository(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	p := f.createProduct(t, "photo-editor")

	got, err := f.products.GetBySlug(ctx, "photo-editor")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID(), got.ID())

	missing, err := f.products.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup, err := product.NewProduct(1, "Again", "photo-editor")
	require.NoError(t, err)
	assert.ErrorIs(t, f.products.Create(ctx, dup), product.ErrSlugExists)
}

func TestAPIKeyRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepository(db, logger.NewNopLogger())
	ctx := t.Context()

	productID := uint(7)
	key, err := apikey.NewAPIKey(apikey.NewAPIKeyParams{
		Name:       "ci",
		KeyHash:    "abc123",
		Prefix:     "lg_live_abcd",
		OwnerID:    1,
		ProductID:  &productID,
		AllowedIPs: []string{"10.0.0.0/8"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.GetByHash(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 60, got.RateLimitPerMinute())
	assert.True(t, got.IsActive())
	assert.True(t, got.AllowsIP("10.1.2.3"))
	require.NotNil(t, got.ProductID())
	assert.Equal(t, productID, *got.ProductID())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastUsedAt(ctx, key.ID(), now))
	require.NoError(t, repo.SetActive(ctx, key.ID(), false))

	got, err = repo.GetByID(ctx, key.ID())
	require.NoError(t, err)
	assert.False(t, got.IsActive())
	require.NotNil(t, got.LastUsedAt())
	assert.True(t, now.Equal(*got.LastUsedAt()))

	assert.ErrorIs(t, repo.SetActive(ctx, 9999, true), apikey.ErrAPIKeyNotFound)

	none, err := repo.GetByHash(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepository(db, logger.NewNopLogger())
	ctx := t.Context()

	first := audit.NewEntry(1, audit.ActionLicenseActivated).ForLicense(5).ByAPIKey(2).From("1.2.3.4").With("machine_id", "m1")
	require.NoError(t, repo.Create(ctx, first))
	second := audit.NewEntry(1, audit.ActionLicenseDeactivated).ForLicense(5).ByAPIKey(0)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, audit.NewEntry(1, audit.ActionLicenseValidated).ForLicense(6)))

	entries, err := repo.ListByLicense(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionLicenseDeactivated, entries[0].Action)
	assert.Nil(t, entries[0].APIKeyID)
	assert.Equal(t, "m1", entries[1].Details["machine_id"])
	assert.Equal(t, "1.2.3.4", entries[1].IPAddress)
}

func TestAsyncAuditRecorder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepository(db, logger.NewNopLogger())
	recorder := NewAsyncAuditRecorder(repo, logger.NewNopLogger())

	recorder.Record(audit.NewEntry(1, audit.ActionLicenseIssued).ForLicense(9))
	recorder.Record(nil)

	assert.Eventually(t, func() bool {
		entries, err := repo.ListByLicense(t.Context(), 9, 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebhookRepositories(t *testing.T) {
	db := setupTestDB(t)
	log := logger.NewNopLogger()
	hooks := NewWebhookRepository(db, log)
	deliveries := NewWebhookDeliveryRepository(db, log)
	ctx := t.Context()

	known := []string{"license.activated", "license.expired"}
	w, err := webhook.NewWebhook(3, "https://hooks.example.com/in", "s3cret", []string{"license.activated"}, known)
	require.NoError(t, err)
	require.NoError(t, hooks.Create(ctx, w))

	other, err := webhook.NewWebhook(4, "https://other.example.com", "", []string{"license.expired"}, known)
	require.NoError(t, err)
	require.NoError(t, hooks.Create(ctx, other))

	list, err := hooks.ListActiveByOwner(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Subscribes("license.activated"))
	assert.False(t, list[0].Subscribes("license.expired"))

	for attempt := 1; attempt <= 2; attempt++ {
		require.NoError(t, deliveries.Create(ctx, &webhook.Delivery{
			DeliveryID: "d-1",
			WebhookID:  w.ID(),
			EventType:  "license.activated",
			Payload:    `{"x":1}`,
			Attempt:    attempt,
			StatusCode: 500,
			CreatedAt:  time.Now().UTC(),
		}))
	}
	got, err := deliveries.ListByWebhook(ctx, w.ID(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Attempt)
}

func TestNotificationLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationLogRepository(db, logger.NewNopLogger())
	ctx := t.Context()

	exists, err := repo.Exists(ctx, 1, notification.KindExpiryReminder)
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := repo.Create(ctx, notification.NewLog(1, notification.KindExpiryReminder))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, notification.NewLog(1, notification.KindExpiryReminder))
	require.NoError(t, err)
	assert.False(t, created)

	created, err = repo.Create(ctx, notification.NewLog(1, notification.KindExpired))
	require.NoError(t, err)
	assert.True(t, created)

	exists, err = repo.Exists(ctx, 1, notification.KindExpiryReminder)
	require.NoError(t, err)
	assert.True(t, exists)
}
