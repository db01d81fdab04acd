package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sessionsadapter "github.com/bnema/visionary-cli/internal/adapters/render/sessions"
	"github.com/bnema/visionary-cli/internal/application"
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errRequestCancelled = errors.New("request cancelled")

func newAskCmd(app *app) *cobra.Command {
	var sessionID string
	var noVoice bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the current conversation",
		Long:  "Send one message to the current conversation. Without a current conversation a new one is started and titled after the message.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID != "" {
				if err := app.sessions.SelectSession(cmd.Context(), domain.SessionID(sessionID)); err != nil {
					return fmt.Errorf("select session %s: %w", sessionID, err)
				}
			}
			if noVoice {
				app.exchange.SetVoiceEnabled(false)
			}

			content := strings.Join(args, " ")
			outcome, err := runTypingSpinner(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context) application.Outcome {
				return app.exchange.SendMessage(ctx, content)
			}, app.exchange.Stop)
			if err != nil {
				return err
			}

			return writeOutcome(cmd, outcome, asJSON)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Conversation ID to select before sending")
	cmd.Flags().BoolVar(&noVoice, "no-voice", false, "Do not read the reply aloud")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newEditCmd(app *app) *cobra.Command {
	var noVoice bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "edit <index> <message>",
		Short: "Edit a message of the current conversation and ask again",
		Long:  "Replace the user message at <index> in the current conversation, drop every later message, and ask the assistant again. Indexes are shown by `visionary session show`.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse message index %q: %w", args[0], err)
			}
			if noVoice {
				app.exchange.SetVoiceEnabled(false)
			}

			outcome, err := editAndResubmit(cmd, app, index, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			return writeOutcome(cmd, outcome, asJSON)
		},
	}

	cmd.Flags().BoolVar(&noVoice, "no-voice", false, "Do not read the reply aloud")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func editAndResubmit(cmd *cobra.Command, app *app, index int, content string) (application.Outcome, error) {
	if err := app.exchange.EditMessage(index, content); err != nil {
		return application.Outcome{}, fmt.Errorf("edit message %d: %w", index, err)
	}

	return runTypingSpinner(cmd.Context(), cmd.ErrOrStderr(), app.exchange.SaveEdit, app.exchange.Stop)
}

// writeOutcome prints a completed reply. Failures were already reported by
// the notifier and are returned so the process exits non-zero.
func writeOutcome(cmd *cobra.Command, outcome application.Outcome, asJSON bool) error {
	switch outcome.Kind {
	case application.OutcomeCompleted:
		if asJSON {
			return writeJSON(cmd, outcome.Reply)
		}

		rendered, err := sessionsadapter.RenderReply(outcome.Reply)
		if err != nil {
			return fmt.Errorf("render reply: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	case application.OutcomeCancelled:
		return errRequestCancelled
	case application.OutcomeRejected:
		return outcome.Err
	default:
		return fmt.Errorf("send message: %w", outcome.Err)
	}
}
