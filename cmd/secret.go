package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errSecretValueMissing = errors.New("secret value is empty")

func newSecretCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage stored credentials (pass first, ~/.visionary/secrets fallback)",
	}

	cmd.AddCommand(
		newSecretSetCmd(app),
		newSecretDeleteCmd(app),
	)

	return cmd
}

func newSecretSetCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:     "set <key>",
		Short:   "Store a secret, read from --value or the first line of stdin",
		Example: "  printf 's3cret\\n' | visionary secret set ingest/password",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if value == "" {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					value = scanner.Text()
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read secret value: %w", err)
				}
			}
			if strings.TrimSpace(value) == "" {
				return errSecretValueMissing
			}

			return app.secrets.Put(cmd.Context(), args[0], value)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Secret value (prefer stdin to keep it out of shell history)")

	return cmd
}

func newSecretDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.secrets.Delete(cmd.Context(), args[0])
		},
	}
}
