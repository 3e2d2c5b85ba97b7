package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"e2egateway/internal/services/identity"
)

func keygenCmd() *cobra.Command {
	var files identity.Files
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and write it to key files",
		Long: "Generate a Curve25519 key pair. The private key is written in plain text\n" +
			"unless --passphrase is given, in which case the file is sealed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, fp, err := identity.Generate(files, passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public key:  %s\nFingerprint: %s\n", pub, fp)
			fmt.Fprintf(cmd.OutOrStdout(), "Private key written to %s\n", files.Private)
			return nil
		},
	}
	cmd.Flags().StringVar(&files.Private, "private", "private.key", "private key file")
	cmd.Flags().StringVar(&files.Public, "public", "public.key", "public key file (empty to skip)")
	return cmd
}
