package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LynnGuo666/ai-switch-cli/internal/health"
)

// RenderTimeline draws a glyph strip for a status time series, most recent
// last. The width parameter caps how many trailing blocks are shown; each
// block is colored by its own status.
func RenderTimeline(timeline []health.StatusCode, width int) string {
	if len(timeline) == 0 || width <= 0 {
		return ""
	}
	if len(timeline) > width {
		timeline = timeline[len(timeline)-width:]
	}

	var sb strings.Builder
	for _, status := range timeline {
		style := lipgloss.NewStyle().Foreground(StatusColor(status))
		sb.WriteString(style.Render("▮"))
	}
	return sb.String()
}

// RenderResults draws a glyph strip for a node's raw check results, mapping
// the feed's numeric codes through the status palette.
func RenderResults(results []int, width int) string {
	if len(results) == 0 || width <= 0 {
		return ""
	}
	if len(results) > width {
		results = results[len(results)-width:]
	}

	var sb strings.Builder
	for _, code := range results {
		status := health.StatusFromCode(code)
		style := lipgloss.NewStyle().Foreground(StatusColor(status))
		sb.WriteString(style.Render("▮"))
	}
	return sb.String()
}

// StatusColor maps a status to its display color.
func StatusColor(status health.StatusCode) lipgloss.Color {
	switch status {
	case health.StatusOK:
		return ColorSuccess
	case health.StatusSlow, health.StatusTimeout:
		return ColorWarning
	case health.StatusError:
		return ColorError
	default:
		return ColorMuted
	}
}
