package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/licensegate/licensegate/internal/interfaces/cli/apikey"
	"github.com/licensegate/licensegate/internal/interfaces/cli/license"
	"github.com/licensegate/licensegate/internal/interfaces/cli/migrate"
	"github.com/licensegate/licensegate/internal/interfaces/cli/product"
	"github.com/licensegate/licensegate/internal/interfaces/cli/server"
	"github.com/licensegate/licensegate/internal/interfaces/cli/sweep"
	"github.com/licensegate/licensegate/internal/interfaces/cli/webhook"
	"github.com/licensegate/licensegate/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "licensegate",
		Short:   "LicenseGate - license issuance and validation service",
		Long:    `LicenseGate issues software licenses and serves the validation protocol client SDKs use to check them.`,
		Version: version.String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		license.NewCommand(),
		apikey.NewCommand(),
		product.NewCommand(),
		webhook.NewCommand(),
		sweep.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
