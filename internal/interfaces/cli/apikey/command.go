// Package apikey implements the API key administration commands.
package apikey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apikeyUsecases "github.com/licensegate/licensegate/internal/application/apikey/usecases"
	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
	"github.com/licensegate/licensegate/internal/interfaces/cli/license"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
)

var flags bootstrap.Flags

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	flags.Register(cmd)
	cmd.AddCommand(
		newCreateCommand(),
		newStateCommand("disable", "Disable an API key", false),
		newStateCommand("enable", "Re-enable a disabled API key", true),
	)

	return cmd
}

func newCreateCommand() *cobra.Command {
	var (
		name      string
		ownerID   uint
		productID uint
		ips       []string
		rateLimit int
		expires   string
		test      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the plaintext key is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			expiresAt, err := license.ParseExpiry(expires)
			if err != nil {
				return err
			}

			command := apikeyUsecases.CreateAPIKeyCommand{
				Name:               name,
				OwnerID:            ownerID,
				AllowedIPs:         ips,
				RateLimitPerMinute: rateLimit,
				ExpiresAt:          expiresAt,
				Test:               test,
			}
			if cmd.Flags().Changed("product") {
				command.ProductID = &productID
			}

			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				result, err := c.Admin().CreateAPIKey.Execute(ctx, command)
				if err != nil {
					return err
				}
				return bootstrap.PrintJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Descriptive name")
	f.UintVar(&ownerID, "owner", 0, "Owner (vendor) ID")
	f.UintVar(&productID, "product", 0, "Restrict the key to one product")
	f.StringSliceVar(&ips, "allow-ip", nil, "Allowed client IP or CIDR, repeatable (empty allows any)")
	f.IntVar(&rateLimit, "rate-limit", 0, "Requests per minute (0 uses the server default)")
	f.StringVar(&expires, "expires", "", "Expiry as RFC3339 or YYYY-MM-DD")
	f.BoolVar(&test, "test", false, "Create a test-mode key")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func newStateCommand(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid api key id %q", args[0])
			}

			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				result, err := c.Admin().SetAPIKeyState.Execute(ctx, uint(id), active)
				if err != nil {
					return err
				}
				return bootstrap.PrintJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}
