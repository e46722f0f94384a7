// Package bootstrap loads configuration, logging and the database for the
// command-line entry points.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/licensegate/licensegate/internal/infrastructure/config"
	"github.com/licensegate/licensegate/internal/infrastructure/database"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
	"github.com/licensegate/licensegate/internal/shared/logger"
)

// Flags are the persistent flags shared by every command.
type Flags struct {
	Env        string
	ConfigPath string
}

// Register adds --env and --config to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
}

// Runtime is an initialized process: config, logger and database.
type Runtime struct {
	Config *config.Config
	Log    logger.Interface
	DB     *gorm.DB
}

// Init loads config, configures logging and opens the database.
func Init(f *Flags) (*Runtime, error) {
	env := f.Env
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, f.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Runtime{Config: cfg, Log: logger.NewLogger(), DB: database.Get()}, nil
}

// Close releases the database.
func (r *Runtime) Close() {
	if err := database.Close(); err != nil {
		r.Log.Warnw("failed to close database", "error", err)
	}
}

// WithContainer runs fn against a fully wired container and shuts it down
// afterwards, draining queued events.
func WithContainer(f *Flags, fn func(ctx context.Context, rt *Runtime, c *httpRouter.Container) error) error {
	rt, err := Init(f)
	if err != nil {
		return err
	}
	defer rt.Close()

	c, err := httpRouter.NewContainer(rt.DB, rt.Config, rt.Log)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	return fn(context.Background(), rt, c)
}

func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
