// Package sweep runs the periodic license maintenance jobs once.
package sweep

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
)

var flags bootstrap.Flags

// Summary is what a sweep run did.
type Summary struct {
	Expired     int `json:"expired"`
	Reminded    int `json:"reminded"`
	StatePurged int `json:"state_purged"`
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue licenses and send expiry reminders once",
		Long: `Run the maintenance jobs a single time: mark overdue licenses expired,
send expiry reminders, and purge stale in-process state. Intended for cron
when the worker process is not deployed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				summary, err := Run(ctx, c)
				if err != nil {
					return err
				}
				rt.Log.Infow("sweep completed",
					"expired", summary.Expired,
					"reminded", summary.Reminded,
					"state_purged", summary.StatePurged)
				return bootstrap.PrintJSON(cmd.OutOrStdout(), summary)
			})
		},
	}

	flags.Register(cmd)

	return cmd
}

// Run executes the maintenance jobs against c.
func Run(ctx context.Context, c *httpRouter.Container) (Summary, error) {
	var s Summary
	var err error

	admin := c.Admin()
	if s.Expired, err = admin.ExpireLicenses.Execute(ctx); err != nil {
		return s, err
	}
	if s.Reminded, err = admin.SendReminders.Execute(ctx); err != nil {
		return s, err
	}
	if s.StatePurged, err = c.SweepState(ctx); err != nil {
		return s, err
	}
	return s, nil
}
