package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const currentMarker = "*"

func renderList(list []domain.Session, opts ListOptions, s styles) string {
	if len(list) == 0 {
		return s.empty.Render("No conversations yet. Start one with `visionary ask` or `visionary chat`.")
	}

	lines := make([]string, 0, len(list)+1)
	lines = append(lines, s.title.Render("Conversations"))
	for _, session := range list {
		marker := " "
		titleStyle := lipgloss.NewStyle()
		if session.ID == opts.Current {
			marker = currentMarker
			titleStyle = s.current
		}

		meta := fmt.Sprintf("%s  %s  %s", session.ID, messageCount(len(session.Messages)), relativeTime(opts.Now, session.UpdatedAt))
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			marker,
			" ",
			titleStyle.Render(session.Title),
			"  ",
			s.meta.Render(meta),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderTranscript(session domain.Session, s styles) string {
	header := lipgloss.JoinVertical(
		lipgloss.Left,
		s.title.Render(session.Title),
		s.meta.Render(fmt.Sprintf("%s  created %s", session.ID, session.CreatedAt.Format(time.DateTime))),
	)
	if len(session.Messages) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", s.empty.Render("No messages yet."))
	}

	blocks := []string{header}
	for i, message := range session.Messages {
		blocks = append(blocks, "", renderIndexedMessage(i, message, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderIndexedMessage(index int, message domain.Message, s styles) string {
	return fmt.Sprintf("%s %s", s.meta.Render(fmt.Sprintf("[%d]", index)), renderMessage(message, s))
}

func renderMessage(message domain.Message, s styles) string {
	label := s.assistant.Render("Visionary")
	if message.Role == domain.RoleUser {
		label = s.user.Render("You")
	}

	lines := []string{label, s.content.Render(message.Content)}

	for _, source := range message.Sources {
		lines = append(lines, s.source.Render(sourceLine(source)))
	}
	if len(message.MatchedKeywords) > 0 {
		lines = append(lines, s.keyword.Render("keywords: "+strings.Join(message.MatchedKeywords, ", ")))
	}
	if message.Router != "" {
		lines = append(lines, s.keyword.Render("router: "+message.Router))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sourceLine(source domain.Source) string {
	title := source.Title
	if title == "" {
		title = source.ID
	}

	line := "source: " + title
	if source.FilePath != "" {
		line += " (" + source.FilePath + ")"
	}
	if snippet := strings.TrimSpace(source.Snippet); snippet != "" {
		line += " - " + snippet
	}

	return line
}

func messageCount(n int) string {
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format(time.DateOnly)
	}
}
