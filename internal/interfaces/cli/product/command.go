// Package product implements the product administration commands.
package product

import (
	"context"

	"github.com/spf13/cobra"

	productUsecases "github.com/licensegate/licensegate/internal/application/product/usecases"
	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
)

var flags bootstrap.Flags

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products",
	}

	flags.Register(cmd)
	cmd.AddCommand(newCreateCommand())

	return cmd
}

func newCreateCommand() *cobra.Command {
	var command productUsecases.CreateProductCommand

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				result, err := c.Admin().CreateProduct.Execute(ctx, command)
				if err != nil {
					return err
				}
				return bootstrap.PrintJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	f := cmd.Flags()
	f.UintVar(&command.OwnerID, "owner", 0, "Owner (vendor) ID")
	f.StringVar(&command.Name, "name", "", "Display name")
	f.StringVar(&command.Slug, "slug", "", "URL-safe identifier clients send as product_id")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")

	return cmd
}
