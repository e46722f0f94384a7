package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/licensegate/licensegate/internal/infrastructure/config"
	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
	sharedConfig "github.com/licensegate/licensegate/internal/shared/config"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

func TestRun_ExpiresOverdueLicenses(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	require.NoError(t, db.Create([]*models.LicenseModel{
		{LicenseKey: "LG-OVERDUE", ProductID: 1, OwnerID: 1, Type: "standard", Status: "active", MaxActivations: 1, ExpiresAt: &past},
		{LicenseKey: "LG-CURRENT", ProductID: 1, OwnerID: 1, Type: "standard", Status: "active", MaxActivations: 1, ExpiresAt: &future},
	}).Error)

	cfg := &config.Config{
		Security: sharedConfig.SecurityConfig{
			SigningSecret: "test-secret",
			StateBackend:  httpRouter.StateBackendMemory,
		},
		Scheduler: sharedConfig.SchedulerConfig{ReminderDays: 7},
	}
	c, err := httpRouter.NewContainer(db, cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(t.Context()) })

	summary, err := Run(t.Context(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Expired)
	assert.Zero(t, summary.Reminded)

	var overdue models.LicenseModel
	require.NoError(t, db.Where("license_key = ?", "LG-OVERDUE").First(&overdue).Error)
	assert.Equal(t, "expired", overdue.Status)

	summary, err = Run(t.Context(), c)
	require.NoError(t, err)
	assert.Zero(t, summary.Expired)
}
