package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent    = lipgloss.Color("#667EEA")
	accentAlt = lipgloss.Color("#F6AE2D")
	muted     = lipgloss.Color("#8CA1AE")
	danger    = lipgloss.Color("#FF6B6B")
	success   = lipgloss.Color("#50E3C2")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(muted)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentAlt).
			MarginBottom(1)

	dotActive   = lipgloss.NewStyle().Foreground(accent).Render("●")
	dotInactive = lipgloss.NewStyle().Foreground(muted).Render("○")

	busyStyle    = lipgloss.NewStyle().Foreground(accentAlt).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(success)
	warnStyle    = lipgloss.NewStyle().Foreground(accentAlt)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
)
