// Package license implements the license administration commands.
package license

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	licenseUsecases "github.com/licensegate/licensegate/internal/application/license/usecases"
	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
)

var flags bootstrap.Flags

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Issue and manage licenses",
	}

	flags.Register(cmd)

	cmd.AddCommand(
		newIssueCommand(),
		newStatusCommand(licenseUsecases.ActionRevoke, "Permanently revoke a license"),
		newStatusCommand(licenseUsecases.ActionSuspend, "Suspend a license until it is reinstated"),
		newStatusCommand(licenseUsecases.ActionReinstate, "Reinstate a suspended, expired or revoked license"),
	)

	return cmd
}

type issueOptions struct {
	productID      uint
	ownerID        uint
	customerName   string
	customerEmail  string
	licenseType    string
	maxActivations int
	domains        []string
	expires        string
	metadata       map[string]string
}

func newIssueCommand() *cobra.Command {
	var opts issueOptions

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new license",
		Example: `  licensegate license issue --product 1 --owner 1 --email jane@example.com \
    --max-activations 3 --domain example.com --expires 2027-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			expiresAt, err := ParseExpiry(opts.expires)
			if err != nil {
				return err
			}

			command := licenseUsecases.IssueLicenseCommand{
				ProductID:      opts.productID,
				OwnerID:        opts.ownerID,
				CustomerName:   opts.customerName,
				CustomerEmail:  opts.customerEmail,
				Type:           opts.licenseType,
				MaxActivations: opts.maxActivations,
				AllowedDomains: opts.domains,
				ExpiresAt:      expiresAt,
			}
			if len(opts.metadata) > 0 {
				command.Metadata = make(map[string]any, len(opts.metadata))
				for k, v := range opts.metadata {
					command.Metadata[k] = v
				}
			}

			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				result, err := c.Admin().IssueLicense.Execute(ctx, command)
				if err != nil {
					return err
				}
				return bootstrap.PrintJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	f := cmd.Flags()
	f.UintVar(&opts.productID, "product", 0, "Product ID the license belongs to")
	f.UintVar(&opts.ownerID, "owner", 0, "Owner (vendor) ID")
	f.StringVar(&opts.customerName, "name", "", "Customer name")
	f.StringVar(&opts.customerEmail, "email", "", "Customer email, used for expiry reminders")
	f.StringVar(&opts.licenseType, "type", "standard", "License type (trial, standard, professional, enterprise)")
	f.IntVar(&opts.maxActivations, "max-activations", 1, "Maximum concurrent machine activations")
	f.StringSliceVar(&opts.domains, "domain", nil, "Allowed domain, repeatable (empty allows any domain)")
	f.StringVar(&opts.expires, "expires", "", "Expiry as RFC3339 or YYYY-MM-DD (empty never expires)")
	f.StringToStringVar(&opts.metadata, "meta", nil, "Metadata key=value pairs")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func newStatusCommand(action licenseUsecases.StatusAction, short string) *cobra.Command {
	var (
		reason  string
		expires string
	)

	cmd := &cobra.Command{
		Use:   string(action) + " <license-key>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := licenseUsecases.ChangeLicenseStatusCommand{
				LicenseKey: strings.TrimSpace(args[0]),
				Action:     action,
				Reason:     reason,
			}
			if action == licenseUsecases.ActionReinstate {
				expiresAt, err := ParseExpiry(expires)
				if err != nil {
					return err
				}
				command.NewExpiresAt = expiresAt
			}

			return bootstrap.WithContainer(&flags, func(ctx context.Context, rt *bootstrap.Runtime, c *httpRouter.Container) error {
				result, err := c.Admin().ChangeStatus.Execute(ctx, command)
				if err != nil {
					return err
				}
				return bootstrap.PrintJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded in the audit log")
	if action == licenseUsecases.ActionReinstate {
		cmd.Flags().StringVar(&expires, "expires", "", "New expiry as RFC3339 or YYYY-MM-DD")
	}

	return cmd
}

// ParseExpiry accepts RFC3339 or a bare date, which is taken as the end of
// that day in UTC. An empty value means no expiry.
func ParseExpiry(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry %q: use RFC3339 or YYYY-MM-DD", value)
	}
	t := d.Add(24*time.Hour - time.Second).UTC()
	return &t, nil
}
