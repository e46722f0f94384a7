package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/infrastructure/persistence/models"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

// Manager handles database migrations with different strategies
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose for mysql/postgres and AutoMigrate for sqlite or
// when strategyName is "auto".
func NewManager(driver, strategyName string) (*Manager, error) {
	var strategy Strategy
	if driver == "sqlite" || strategyName == "auto" {
		strategy = NewGormAutoMigrateStrategy()
	} else {
		gs, err := NewGooseStrategy(driver)
		if err != nil {
			return nil, err
		}
		strategy = gs
	}
	return NewManagerWithStrategy(strategy), nil
}

func NewManagerWithStrategy(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migration.manager"),
	}
}

// Migrate brings the schema up to date.
func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db, models.All()...); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed successfully", "strategy", m.strategy.GetName())
	return nil
}

// Versioned returns the strategy when it supports down/status.
func (m *Manager) Versioned() (VersionedStrategy, bool) {
	vs, ok := m.strategy.(VersionedStrategy)
	return vs, ok
}

func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}
