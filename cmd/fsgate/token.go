package main

import (
	"errors"
	"fmt"

	"fsgate/internal/credentials"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the HTTP API bearer token",
		Long: `Manage the bearer token 'fsgate serve --transport http --auth' requires.
The token is kept in the OS credential store.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Generate and store a new token, printing it once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				token, err := credentials.GenerateToken()
				if err != nil {
					return err
				}
				if err := credentials.NewCredentialManager().StoreAPIToken(token); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			},
		},
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store a token of your choosing",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return credentials.NewCredentialManager().StoreAPIToken(args[0])
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether a token is stored",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := credentials.NewCredentialManager().GetAPIToken()
				switch {
				case err == nil:
					fmt.Fprintln(cmd.OutOrStdout(), "token stored")
				case errors.Is(err, credentials.ErrNoToken):
					fmt.Fprintln(cmd.OutOrStdout(), "no token stored")
				default:
					return err
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored token",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return credentials.NewCredentialManager().DeleteAPIToken()
			},
		},
	)
	return cmd
}
