package usecases

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/licensegate/licensegate/internal/domain/apikey"
	"github.com/licensegate/licensegate/internal/domain/audit"
	"github.com/licensegate/licensegate/internal/domain/license"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/domain/notification"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/domain/shared/events"
	"github.com/licensegate/licensegate/internal/infrastructure/auth"
	"github.com/licensegate/licensegate/internal/infrastructure/cache"
	"github.com/licensegate/licensegate/internal/infrastructure/metrics"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/infrastructure/repository"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(event events.DomainEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *mockPublisher) eventTypes() []string {
	var types []string
	for _, c := range m.Calls {
		if c.Method == "Publish" {
			types = append(types, c.Arguments.Get(0).(events.DomainEvent).GetEventType())
		}
	}
	return types
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (r *captureRecorder) Record(e *audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *captureRecorder) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	log       logger.Interface
	products  product.Repository
	licenses  license.Repository
	ledger    license.ActivationLedger
	logs      notification.LogRepository
	nonces    *cache.MemoryNonceStore
	signer    *auth.Signer
	publisher *mockPublisher
	recorder  *captureRecorder
	metrics   *metrics.Registry
	product   *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	signer, err := auth.NewSigner([]byte("test-signing-secret"), auth.DefaultTokenMaxAge)
	require.NoError(t, err)

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything).Return(nil)

	log := logger.NewNopLogger()
	f := &fixture{
		db:        db,
		log:       log,
		products:  repository.NewProductRepository(db, log),
		licenses:  repository.NewLicenseRepository(db, log),
		ledger:    repository.NewActivationLedger(db, log),
		logs:      repository.NewNotificationLogRepository(db, log),
		nonces:    cache.NewMemoryNonceStore(0),
		signer:    signer,
		publisher: publisher,
		recorder:  &captureRecorder{},
		metrics:   metrics.NewRegistry(),
	}

	p, err := product.NewProduct(1, "Acme Editor", "acme-editor")
	require.NoError(t, err)
	require.NoError(t, f.products.Create(t.Context(), p))
	f.product = p
	return f
}

type licenseOpt func(*license.NewLicenseParams)

func withDomains(d ...string) licenseOpt {
	return func(p *license.NewLicenseParams) { p.AllowedDomains = d }
}

func withMax(n int) licenseOpt {
	return func(p *license.NewLicenseParams) { p.MaxActivations = n }
}

func withExpiry(at time.Time) licenseOpt {
	return func(p *license.NewLicenseParams) { p.ExpiresAt = &at }
}

func (f *fixture) createLicense(t *testing.T, key string, opts ...licenseOpt) *license.License {
	t.Helper()
	params := license.NewLicenseParams{
		LicenseKey:     key,
		ProductID:      f.product.ID(),
		OwnerID:        1,
		CustomerName:   "Jane Buyer",
		CustomerEmail:  "jane@example.com",
		Type:           vo.TypeProfessional,
		MaxActivations: 3,
	}
	for _, opt := range opts {
		opt(&params)
	}
	l, err := license.NewLicense(params)
	require.NoError(t, err)
	require.NoError(t, f.licenses.Create(t.Context(), l))
	return l
}

// forceExpiry writes an expiry directly, bypassing the future-date check.
func (f *fixture) forceExpiry(t *testing.T, id uint, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.LicenseModel{}).Where("id = ?", id).Update("expires_at", at).Error)
}

func (f *fixture) reload(t *testing.T, id uint) *license.License {
	t.Helper()
	l, err := f.licenses.GetByID(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func (f *fixture) validator() *ValidateLicenseUseCase {
	return NewValidateLicenseUseCase(f.licenses, f.ledger, f.products, f.nonces, f.signer,
		f.publisher, f.recorder, f.metrics, f.log)
}

func scopedKey(productID uint) *apikey.APIKey {
	return apikey.ReconstructAPIKey(apikey.ReconstructAPIKeyParams{
		ID:        9,
		KeyHash:   "hash",
		OwnerID:   1,
		ProductID: &productID,
		IsActive:  true,
	})
}
