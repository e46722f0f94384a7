package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/shared/constants"
)

func TestNewManager_SelectsStrategy(t *testing.T) {
	m, err := NewManager("sqlite", "goose")
	require.NoError(t, err)
	assert.Equal(t, "gorm_auto_migrate", m.GetStrategy().GetName())
	_, ok := m.Versioned()
	assert.False(t, ok)

	m, err = NewManager("mysql", "goose")
	require.NoError(t, err)
	assert.Equal(t, "goose", m.GetStrategy().GetName())
	_, ok = m.Versioned()
	assert.True(t, ok)

	_, err = NewManager("oracle", "goose")
	assert.Error(t, err)
}

func TestAutoMigrate_CreatesAllTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, NewManagerWithStrategy(NewGormAutoMigrateStrategy()).Migrate(db))

	for _, table := range []string{
		constants.TableProducts,
		constants.TableLicenses,
		constants.TableActivations,
		constants.TableAPIKeys,
		constants.TableAuditLogs,
		constants.TableWebhooks,
		constants.TableWebhookDeliveries,
		constants.TableNotificationLogs,
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestEmbeddedScripts_CoverEveryTable(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres"} {
		raw, err := fs.ReadFile(scriptsFS, "scripts/"+dialect+"/00001_init.sql")
		require.NoError(t, err)
		script := string(raw)

		assert.True(t, strings.HasPrefix(script, "-- +goose Up"), dialect)
		assert.Contains(t, script, "-- +goose Down")
		for _, table := range []string{constants.TableLicenses, constants.TableActivations, constants.TableAPIKeys, constants.TableNotificationLogs} {
			assert.Contains(t, script, "CREATE TABLE "+table+" (", dialect)
		}
	}
}
