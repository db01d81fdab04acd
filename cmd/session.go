package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sessionsadapter "github.com/bnema/visionary-cli/internal/adapters/render/sessions"
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errClearNotConfirmed = errors.New("refusing to delete every conversation without --yes")

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage conversations",
	}

	cmd.AddCommand(
		newSessionListCmd(app),
		newSessionShowCmd(app),
		newSessionNewCmd(app),
		newSessionSelectCmd(app),
		newSessionRenameCmd(app),
		newSessionDeleteCmd(app),
		newSessionDuplicateCmd(app),
		newSessionHomeCmd(app),
		newSessionClearCmd(app),
	)

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(cmd, app.sessions.SortedSessions())
			}

			rendered, err := app.renderSessionList()
			if err != nil {
				return fmt.Errorf("render sessions: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print a conversation (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := lookupSession(app, args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, session)
			}

			rendered, err := sessionsadapter.RenderTranscript(session)
			if err != nil {
				return fmt.Errorf("render conversation: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newSessionNewCmd(app *app) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start an empty conversation and make it current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.sessions.NewChat(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.sessions.RenameSession(cmd.Context(), session.ID, title); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), session.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Conversation title")

	return cmd
}

func newSessionSelectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Make a conversation current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sessions.SelectSession(cmd.Context(), domain.SessionID(args[0])); err != nil {
				return fmt.Errorf("select session %s: %w", args[0], err)
			}
			return nil
		},
	}
}

func newSessionRenameCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.SessionID(args[0])
			if _, ok := app.sessions.Session(id); !ok {
				return fmt.Errorf("rename session %s: %w", args[0], domain.ErrSessionNotFound)
			}

			return app.sessions.RenameSession(cmd.Context(), id, strings.Join(args[1:], " "))
		},
	}
}

func newSessionDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.SessionID(args[0])
			if _, ok := app.sessions.Session(id); !ok {
				return fmt.Errorf("delete session %s: %w", args[0], domain.ErrSessionNotFound)
			}

			return app.sessions.DeleteSession(cmd.Context(), id)
		},
	}
}

func newSessionDuplicateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a conversation and make the copy current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			duplicate, err := app.sessions.DuplicateSession(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return fmt.Errorf("duplicate session %s: %w", args[0], err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), duplicate.ID)
			return err
		},
	}
}

func newSessionHomeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Leave the current conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.sessions.GoHome(cmd.Context())
		},
	}
}

func newSessionClearCmd(app *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errClearNotConfirmed
			}
			return app.sessions.ClearAll(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deleting every conversation")

	return cmd
}

func lookupSession(app *app, args []string) (domain.Session, error) {
	if len(args) == 0 {
		session, ok := app.sessions.CurrentSession()
		if !ok {
			return domain.Session{}, domain.ErrNoCurrentSession
		}
		return session, nil
	}

	session, ok := app.sessions.Session(domain.SessionID(args[0]))
	if !ok {
		return domain.Session{}, fmt.Errorf("show session %s: %w", args[0], domain.ErrSessionNotFound)
	}

	return session, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
