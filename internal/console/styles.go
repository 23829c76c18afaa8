package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/LynnGuo666/ai-switch-cli/internal/ui"
)

// Base styles for the console views.
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(ui.ColorInfo).
			Bold(true).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary)

	rowSelectedStyle = lipgloss.NewStyle().
				Foreground(ui.ColorInfo).
				Bold(true)

	groupStyle = lipgloss.NewStyle().
			Foreground(ui.ColorSecondary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	messageStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	promptStyle = lipgloss.NewStyle().
			Foreground(ui.ColorWarning).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(ui.ColorSuccess)
)
