package notice

import (
	"fmt"
	"io"
	"sync"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"github.com/charmbracelet/lipgloss"
)

// Notifier prints toast-style notifications as single styled lines.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer

	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	body    lipgloss.Style
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{
		out:     out,
		info:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		body:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

func (n *Notifier) Notify(notification ports.Notification) {
	title := n.titleStyle(notification.Level).Render(notification.Title)

	n.mu.Lock()
	defer n.mu.Unlock()

	if notification.Message == "" {
		_, _ = fmt.Fprintln(n.out, title)
		return
	}
	_, _ = fmt.Fprintf(n.out, "%s: %s\n", title, n.body.Render(notification.Message))
}

func (n *Notifier) titleStyle(level ports.NotificationLevel) lipgloss.Style {
	switch level {
	case ports.NotificationSuccess:
		return n.success
	case ports.NotificationError:
		return n.failure
	default:
		return n.info
	}
}

// Navigator reports view changes on the notifier's output.
type Navigator struct {
	notifier *Notifier
}

func NewNavigator(notifier *Notifier) Navigator {
	return Navigator{notifier: notifier}
}

func (n Navigator) ShowSession(id domain.SessionID) {
	n.notifier.Notify(ports.Notification{Level: ports.NotificationInfo, Title: "Session", Message: string(id)})
}

func (n Navigator) ShowHome() {
	n.notifier.Notify(ports.Notification{Level: ports.NotificationInfo, Title: "Home"})
}
