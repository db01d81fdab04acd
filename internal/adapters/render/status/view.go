package status

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/visionary-cli/internal/application"
	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 24

type RenderOptions struct {
	BackendURL string
	BarWidth   int
}

func renderView(status application.KnowledgeStatus, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("Visionary Knowledge Base")}
	if opts.BackendURL != "" {
		lines = append(lines, s.header.Render("backend: "+opts.BackendURL))
	}

	lines = append(lines, healthLine(status, s))
	lines = append(lines, s.section.Render(renderRules(status, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func healthLine(status application.KnowledgeStatus, s styles) string {
	if status.HealthErr != nil {
		return s.warning.Render(fmt.Sprintf("health: unavailable (%v)", status.HealthErr))
	}

	label := strings.TrimSpace(status.Health.Status)
	if label == "" {
		label = "unknown"
	}
	line := "health: " + label
	if message := strings.TrimSpace(status.Health.Message); message != "" {
		line += " - " + message
	}

	if strings.EqualFold(label, "ok") || strings.EqualFold(label, "healthy") {
		return s.healthy.Render(line)
	}
	return s.warning.Render(line)
}

func renderRules(status application.KnowledgeStatus, opts RenderOptions, s styles) string {
	if status.RulesErr != nil {
		return s.warning.Render(fmt.Sprintf("rules: unavailable (%v)", status.RulesErr))
	}

	rules := status.Rules
	parts := []string{
		s.header.Render(fmt.Sprintf("rules: %d across %d groups", rules.TotalRules, len(rules.Groups))),
	}
	if len(rules.Groups) == 0 {
		parts = append(parts, s.empty.Render("No keyword rules loaded."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	width := opts.BarWidth
	if width <= 0 {
		width = defaultBarWidth
	}

	nameWidth := 0
	maxCount := 0
	for _, group := range rules.Groups {
		nameWidth = max(nameWidth, lipgloss.Width(group.Name))
		maxCount = max(maxCount, group.KeywordCount)
	}

	for _, group := range rules.Groups {
		parts = append(parts, groupLine(group, nameWidth, maxCount, width, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func groupLine(group domain.RuleGroup, nameWidth int, maxCount int, width int, s styles) string {
	name := s.groupName.Render(group.Name + strings.Repeat(" ", nameWidth-lipgloss.Width(group.Name)))

	share := 0.0
	if maxCount > 0 {
		share = float64(group.KeywordCount) / float64(maxCount) * 100
	}
	countStyle := lipgloss.NewStyle().Foreground(interpolateColor(share, 0, 100))

	suffix := "keywords"
	if group.KeywordCount == 1 {
		suffix = "keyword"
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		name,
		" ",
		renderProgressBar(share, width, s),
		" ",
		countStyle.Render(fmt.Sprintf("%d %s", group.KeywordCount, suffix)),
	)
}

func renderProgressBar(filledPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := clampPercent(filledPercent) / 100.0
	filled := int(math.Round(float64(width) * fraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}
