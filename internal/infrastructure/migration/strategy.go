package migration

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/shared/logger"
)

//go:embed scripts/mysql/*.sql scripts/postgres/*.sql
var scriptsFS embed.FS

// Strategy brings a database schema up to date.
type Strategy interface {
	Migrate(db *gorm.DB, models ...interface{}) error
	GetName() string
}

// VersionedStrategy is implemented by strategies that track applied versions.
type VersionedStrategy interface {
	Strategy
	MigrateDown(db *gorm.DB, steps int) error
	Status(db *gorm.DB) error
	GetVersion(db *gorm.DB) (int64, error)
}

// GooseStrategy applies the embedded SQL scripts for one dialect.
type GooseStrategy struct {
	dialect string
	dir     string
	logger  logger.Interface
}

// NewGooseStrategy supports the mysql and postgres drivers.
func NewGooseStrategy(driver string) (*GooseStrategy, error) {
	switch driver {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("goose migrations are not available for driver %q", driver)
	}
	return &GooseStrategy{
		dialect: driver,
		dir:     "scripts/" + driver,
		logger:  logger.NewLogger().With("component", "migration.goose"),
	}, nil
}

// withConn points goose's package-level state at the embedded scripts for
// this dialect and hands fn the underlying connection.
func (s *GooseStrategy) withConn(db *gorm.DB, fn func(conn *sql.DB) error) error {
	goose.SetBaseFS(scriptsFS)
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	conn, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return fn(conn)
}

func (s *GooseStrategy) GetName() string { return "goose" }

// Migrate applies every pending script. models is ignored; the scripts are
// the schema.
func (s *GooseStrategy) Migrate(db *gorm.DB, _ ...interface{}) error {
	return s.withConn(db, func(conn *sql.DB) error {
		from, err := goose.GetDBVersion(conn)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if err := goose.Up(conn, s.dir); err != nil {
			s.logger.Errorw("goose up failed", "dialect", s.dialect, "from_version", from, "error", err)
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		to, err := goose.GetDBVersion(conn)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		s.logger.Infow("schema migrated", "dialect", s.dialect, "from_version", from, "to_version", to)
		return nil
	})
}

// MigrateDown rolls back steps scripts, newest first.
func (s *GooseStrategy) MigrateDown(db *gorm.DB, steps int) error {
	return s.withConn(db, func(conn *sql.DB) error {
		for done := 0; done < steps; done++ {
			if err := goose.Down(conn, s.dir); err != nil {
				return fmt.Errorf("rollback %d of %d failed: %w", done+1, steps, err)
			}
		}
		s.logger.Infow("schema rolled back", "steps", steps)
		return nil
	})
}

func (s *GooseStrategy) GetVersion(db *gorm.DB) (version int64, err error) {
	err = s.withConn(db, func(conn *sql.DB) error {
		version, err = goose.GetDBVersion(conn)
		return err
	})
	return version, err
}

// Status prints goose's applied/pending table through its logger.
func (s *GooseStrategy) Status(db *gorm.DB) error {
	return s.withConn(db, func(conn *sql.DB) error {
		return goose.Status(conn, s.dir)
	})
}

// GormAutoMigrateStrategy derives the schema from the persistence models.
// Used for sqlite and local development.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy() *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	s.logger.Infow("running gorm auto migrate", "models_count", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string { return "gorm_auto_migrate" }
