package sessions

import (
	"errors"
	"io"
	"time"

	"github.com/bnema/visionary-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	view   func(styles) string
	styles styles
	output string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.view(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

type ListOptions struct {
	Current domain.SessionID
	Now     time.Time
}

// RenderList draws the session sidebar: one line per session, newest first.
func RenderList(list []domain.Session, opts ListOptions) (string, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	return run(func(s styles) string {
		return renderList(list, opts, s)
	})
}

// RenderTranscript draws every message of a session with its citations.
func RenderTranscript(session domain.Session) (string, error) {
	return run(func(s styles) string {
		return renderTranscript(session, s)
	})
}

// RenderReply draws a single assistant message, as printed after an exchange.
func RenderReply(message domain.Message) (string, error) {
	return run(func(s styles) string {
		return renderMessage(message, s)
	})
}

func run(view func(styles) string) (string, error) {
	p := tea.NewProgram(
		model{view: view, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
