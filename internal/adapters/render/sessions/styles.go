package sessions

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	current   lipgloss.Style
	meta      lipgloss.Style
	empty     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	content   lipgloss.Style
	source    lipgloss.Style
	keyword   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		current:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:     lipgloss.NewStyle().Faint(true),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		content:   lipgloss.NewStyle().PaddingLeft(2),
		source:    lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("250")),
		keyword:   lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("244")),
	}
}
