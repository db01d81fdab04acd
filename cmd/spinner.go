package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/bnema/visionary-cli/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const typingLabel = "Visionary is typing..."

type exchangeDoneMsg struct {
	outcome application.Outcome
}

type typingSpinnerModel struct {
	spinner spinner.Model
	label   string
	send    tea.Cmd
	outcome application.Outcome
	done    bool
}

func newTypingSpinnerModel(label string, send tea.Cmd) typingSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return typingSpinnerModel{
		spinner: s,
		label:   label,
		send:    send,
	}
}

func (m typingSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.send)
}

func (m typingSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case exchangeDoneMsg:
		m.done = true
		m.outcome = msg.outcome
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m typingSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runTypingSpinner shows the typing indicator on output until send returns.
// Ctrl+C calls stop, which makes send return a cancelled outcome.
func runTypingSpinner(ctx context.Context, output io.Writer, send func(context.Context) application.Outcome, stop func() bool) (application.Outcome, error) {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupts:
			stop()
		case <-done:
		}
	}()

	sendCmd := func() tea.Msg {
		return exchangeDoneMsg{outcome: send(ctx)}
	}

	p := tea.NewProgram(
		newTypingSpinnerModel(typingLabel, sendCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.Outcome{}, err
	}

	result, ok := finalModel.(typingSpinnerModel)
	if !ok {
		return application.Outcome{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.outcome, nil
}
