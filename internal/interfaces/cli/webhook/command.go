// Package webhook implements the webhook administration commands.
package webhook

import (
	"context"

	"github.com/spf13/cobra"

	webhookUsecases "github.com/licensegate/licensegate/internal/application/webhook/usecases"
	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
)

var flags bootstrap.Flags

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage license event webhooks",
	}

	flags.Register(cmd)
	cmd.AddCommand(newCreateCommand())

	return cmd
}

func newCreateCommand() *cobra.Command {
	var command webhookUsecases.CreateWebhookCommand

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				result, err := c.Admin().CreateWebhook.Execute(ctx, command)
				if err != nil {
					return err
				}
				return bootstrap.PrintJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	f := cmd.Flags()
	f.UintVar(&command.OwnerID, "owner", 0, "Owner (vendor) ID")
	f.StringVar(&command.URL, "url", "", "HTTPS endpoint receiving deliveries")
	f.StringSliceVar(&command.Events, "event", nil, "Event type to subscribe to, repeatable (empty subscribes to all)")
	f.StringVar(&command.Secret, "secret", "", "Signing secret for deliveries")
	f.BoolVar(&command.GenerateSecret, "generate-secret", false, "Generate a random signing secret")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
