package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	sessionsadapter "github.com/bnema/visionary-cli/internal/adapters/render/sessions"
	"github.com/bnema/visionary-cli/internal/application"
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/spf13/cobra"
)

const chatHelp = `Commands:
  /new                 start a new conversation
  /home                leave the current conversation
  /sessions            list conversations
  /select <id>         switch to a conversation
  /show                print the current conversation
  /edit <index> <text> edit a message and ask again
  /voice on|off        toggle reading replies aloud (remembered)
  /quit                exit
Any other line is sent to Visionary.`

var errChatQuit = errors.New("quit")

func newChatCmd(app *app) *cobra.Command {
	var sessionID string
	var noVoice bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long:  "Start an interactive conversation. Every line is sent as a message; Ctrl+C while Visionary is typing stops the request.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sessionID != "" {
				if err := app.sessions.SelectSession(cmd.Context(), domain.SessionID(sessionID)); err != nil {
					return fmt.Errorf("select session %s: %w", sessionID, err)
				}
			}
			if noVoice {
				app.exchange.SetVoiceEnabled(false)
			}

			return runChat(cmd, app)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Conversation ID to resume")
	cmd.Flags().BoolVar(&noVoice, "no-voice", false, "Do not read replies aloud")

	return cmd
}

func runChat(cmd *cobra.Command, app *app) error {
	out := cmd.OutOrStdout()

	if session, ok := app.sessions.CurrentSession(); ok {
		rendered, err := sessionsadapter.RenderTranscript(session)
		if err != nil {
			return fmt.Errorf("render conversation: %w", err)
		}
		_, _ = fmt.Fprintln(out, rendered)
	} else {
		_, _ = fmt.Fprintln(out, "How can I help you today? Type /help for commands.")
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := handleChatLine(cmd, app, line)
		if errors.Is(err, errChatQuit) {
			return nil
		}
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
		}
	}
}

func handleChatLine(cmd *cobra.Command, app *app, line string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !strings.HasPrefix(line, "/") {
		return chatExchange(cmd, app, func(ctx context.Context) application.Outcome {
			return app.exchange.SendMessage(ctx, line)
		})
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "/quit", "/exit":
		return errChatQuit
	case "/help":
		_, err := fmt.Fprintln(out, chatHelp)
		return err
	case "/new":
		_, err := app.sessions.NewChat(ctx)
		return err
	case "/home":
		return app.sessions.GoHome(ctx)
	case "/sessions":
		rendered, err := app.renderSessionList()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, rendered)
		return err
	case "/select":
		return app.sessions.SelectSession(ctx, domain.SessionID(rest))
	case "/show":
		session, ok := app.sessions.CurrentSession()
		if !ok {
			return domain.ErrNoCurrentSession
		}
		rendered, err := sessionsadapter.RenderTranscript(session)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, rendered)
		return err
	case "/edit":
		rawIndex, content, _ := strings.Cut(rest, " ")
		index, err := strconv.Atoi(rawIndex)
		if err != nil {
			return errors.New("usage: /edit <index> <text>")
		}
		outcome, err := editAndResubmit(cmd, app, index, content)
		if err != nil {
			return err
		}
		return printChatOutcome(out, outcome)
	case "/voice":
		switch rest {
		case "on":
			return app.exchange.ToggleVoice(ctx, true)
		case "off":
			return app.exchange.ToggleVoice(ctx, false)
		default:
			return errors.New("usage: /voice on|off")
		}
	default:
		return fmt.Errorf("unknown command %q, type /help", command)
	}
}

func chatExchange(cmd *cobra.Command, app *app, send func(context.Context) application.Outcome) error {
	outcome, err := runTypingSpinner(cmd.Context(), cmd.ErrOrStderr(), send, app.exchange.Stop)
	if err != nil {
		return err
	}

	return printChatOutcome(cmd.OutOrStdout(), outcome)
}

// printChatOutcome keeps the loop alive after failures; the notifier has
// already reported them.
func printChatOutcome(out io.Writer, outcome application.Outcome) error {
	switch outcome.Kind {
	case application.OutcomeCompleted:
		rendered, err := sessionsadapter.RenderReply(outcome.Reply)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, rendered)
		return err
	case application.OutcomeCancelled:
		_, err := fmt.Fprintln(out, "Stopped.")
		return err
	case application.OutcomeRejected:
		return outcome.Err
	default:
		return nil
	}
}
