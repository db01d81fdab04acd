package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/visionary-cli/internal/application"
	"github.com/spf13/cobra"
)

var errIngestPasswordMissing = errors.New("ingest requires --password")

func newIngestCmd(app *app) *cobra.Command {
	var files []string
	var name string
	var password string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Upload rate spreadsheets to the knowledge base",
		Long:  "Upload one or more .xlsx rate spreadsheets to the knowledge base under a display name. When an ingest password is configured (ingest.password, or ingest.password_secret naming a stored secret) the same password must be given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" && app.ingest.PasswordRequired() {
				return errIngestPasswordMissing
			}

			results, err := app.ingest.Ingest(cmd.Context(), application.IngestRequest{
				Files:    files,
				Name:     name,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			failed := 0
			for _, result := range results {
				if result.Err != nil {
					failed++
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d/%d files\n", len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("ingest: %d of %d uploads failed", failed, len(results))
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&files, "file", nil, "Spreadsheet to upload (repeatable)")
	cmd.Flags().StringVar(&name, "name", "", "Display name for the uploaded data")
	cmd.Flags().StringVar(&password, "password", "", "Ingest password")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
