package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#a78bfa")
	colorBase    = lipgloss.Color("#c0c0c0")
	colorMuted   = lipgloss.Color("#808080")
	colorSubtle  = lipgloss.Color("#585858")
	colorError   = lipgloss.Color("#ff5555")
	colorWarning = lipgloss.Color("#f1a208")
)

var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	titleStyle    = lipgloss.NewStyle().Foreground(colorBase).Bold(true)
	artistStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	metaStyle     = lipgloss.NewStyle().Foreground(colorSubtle)
	filledStyle   = lipgloss.NewStyle().Foreground(colorPrimary)
	emptyStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	bufferStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorPrimary)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
