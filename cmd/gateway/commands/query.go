package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"e2egateway/internal/app"
	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

func pubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey <identity>",
		Short: "Look up the public key of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *app.Connection) error {
				pk, err := c.LookupPublicKey(ctx, domain.Identity(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\nFingerprint: %s\n", crypto.EncodePublicKey(pk), crypto.Fingerprint(pk))
				return nil
			})
		},
	}
}

func creditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Print the remaining message credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *app.Connection) error {
				n, err := c.Credits(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities <identity>",
		Short: "Print what an identity's client can receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *app.Connection) error {
				caps, err := c.Capabilities(ctx, domain.Identity(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(caps, ","))
				return nil
			})
		},
	}
}
