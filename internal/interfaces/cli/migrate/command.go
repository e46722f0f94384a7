package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/licensegate/licensegate/internal/infrastructure/migration"
	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
)

var (
	flags    bootstrap.Flags
	steps    int
	strategy string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}
	flags.Register(cmd)
	cmd.PersistentFlags().StringVar(&strategy, "strategy", "",
		`"" runs the embedded goose scripts (mysql, postgres); "auto" runs gorm AutoMigrate`)

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the newest migrations",
		RunE:  withManager(runDown),
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: withManager(runUp)},
		down,
		&cobra.Command{Use: "status", Short: "Print the schema version and script status", RunE: withManager(runStatus)},
	)
	return cmd
}

type migrateFunc func(cmd *cobra.Command, rt *bootstrap.Runtime, m *migration.Manager) error

// withManager loads config, opens the database and picks the strategy for
// the configured driver before running fn.
func withManager(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap.Init(&flags)
		if err != nil {
			return err
		}
		defer rt.Close()

		m, err := migration.NewManager(rt.Config.Database.Driver, strategy)
		if err != nil {
			return err
		}
		return fn(cmd, rt, m)
	}
}

func versioned(rt *bootstrap.Runtime, m *migration.Manager, op string) (migration.VersionedStrategy, error) {
	vs, ok := m.Versioned()
	if !ok {
		return nil, fmt.Errorf("%s needs the goose strategy; driver %s uses %s", op, rt.Config.Database.Driver, m.GetStrategy().GetName())
	}
	return vs, nil
}

func runUp(_ *cobra.Command, rt *bootstrap.Runtime, m *migration.Manager) error {
	rt.Log.Infow("applying migrations", "environment", flags.Env, "driver", rt.Config.Database.Driver)
	return m.Migrate(rt.DB)
}

func runDown(_ *cobra.Command, rt *bootstrap.Runtime, m *migration.Manager) error {
	vs, err := versioned(rt, m, "rollback")
	if err != nil {
		return err
	}
	rt.Log.Infow("rolling back migrations", "environment", flags.Env, "steps", steps)
	return vs.MigrateDown(rt.DB, steps)
}

func runStatus(cmd *cobra.Command, rt *bootstrap.Runtime, m *migration.Manager) error {
	vs, err := versioned(rt, m, "status")
	if err != nil {
		return err
	}
	version, err := vs.GetVersion(rt.DB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "environment: %s\ndriver:      %s\nversion:     %d\n\n",
		flags.Env, rt.Config.Database.Driver, version)
	return vs.Status(rt.DB)
}
