package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/licensegate/licensegate/internal/domain/license"
	vo "github.com/licensegate/licensegate/internal/domain/license/valueobjects"
	"github.com/licensegate/licensegate/internal/domain/product"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// setupFileTestDB opens a WAL database file with several connections so
// transactions really overlap. Writers that lose a lock race get SQLITE_BUSY.
func setupFileTestDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "ledger.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func isSQLiteBusy(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}

type fixture struct {
	db       *gorm.DB
	log      logger.Interface
	products product.Repository
	licenses license.Repository
	ledger   license.ActivationLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(setupTestDB(t))
}

func newFixtureOn(db *gorm.DB) *fixture {
	log := logger.NewNopLogger()
	return &fixture{
		db:       db,
		log:      log,
		products: NewProductRepository(db, log),
		licenses: NewLicenseRepository(db, log),
		ledger:   NewActivationLedger(db, log),
	}
}

func (f *fixture) createProduct(t *testing.T, slug string) *product.Product {
	t.Helper()
	p, err := product.NewProduct(1, "Product "+slug, slug)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(t.Context(), p))
	return p
}

func (f *fixture) createLicense(t *testing.T, productID uint, key string, maxActivations int, expiresAt *time.Time) *license.License {
	t.Helper()
	l, err := license.NewLicense(license.NewLicenseParams{
		LicenseKey:     key,
		ProductID:      productID,
		OwnerID:        1,
		CustomerEmail:  "buyer@example.com",
		Type:           vo.TypeStandard,
		MaxActivations: maxActivations,
		AllowedDomains: []string{"example.com"},
		ExpiresAt:      expiresAt,
	})
	require.NoError(t, err)
	require.NoError(t, f.licenses.Create(t.Context(), l))
	return l
}

// forceExpiry writes an expiry directly, bypassing the future-date check.
func (f *fixture) forceExpiry(t *testing.T, id uint, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.LicenseModel{}).Where("id = ?", id).Update("expires_at", at).Error)
}

func (f *fixture) counter(t *testing.T, id uint) int {
	t.Helper()
	l, err := f.licenses.GetByID(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l.CurrentActivations()
}

func (f *fixture) activeRows(t *testing.T, id uint) int {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.ActivationModel{}).
		Where("license_id = ? AND is_active = ?", id, true).Count(&n).Error)
	return int(n)
}
