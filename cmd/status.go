package cmd

import (
	"fmt"
	"sort"

	statusadapter "github.com/bnema/visionary-cli/internal/adapters/render/status"
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var refresh bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show knowledge base health and keyword rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if refresh {
				result, err := app.status.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), result.Message)
			}

			status := app.status.Status(cmd.Context())
			if asJSON {
				return writeJSON(cmd, statusJSON{
					Health: status.Health,
					Rules:  status.Rules,
					Errors: errorStrings(map[string]error{"health": status.HealthErr, "rules": status.RulesErr}),
				})
			}

			rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{BackendURL: app.backendURL})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-index the knowledge base before reporting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

type statusJSON struct {
	Health domain.Health       `json:"health"`
	Rules  domain.RulesSummary `json:"rules"`
	Errors map[string]string   `json:"errors,omitempty"`
}

func errorStrings(errs map[string]error) map[string]string {
	out := map[string]string{}
	for key, err := range errs {
		if err != nil {
			out[key] = err.Error()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func newDocCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doc <id>",
		Short: "Preview a source document cited in a reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := app.status.DocumentPreview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, preview)
			}

			out := cmd.OutOrStdout()
			keys := make([]string, 0, len(preview.Metadata))
			for key := range preview.Metadata {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				_, _ = fmt.Fprintf(out, "%s: %v\n", key, preview.Metadata[key])
			}
			if len(keys) > 0 {
				_, _ = fmt.Fprintln(out)
			}

			_, err = fmt.Fprintln(out, preview.Content)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
