package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme collects the browser's colors and styles in one place.
type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	StatusBar lipgloss.Style
	DetailBox lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Under     lipgloss.Style
	Over      lipgloss.Style
	Approved  lipgloss.Style
	Rejected  lipgloss.Style
	Selected  lipgloss.Style
	Border    lipgloss.Color
	Muted     lipgloss.Color
}

// DefaultTheme is the standard dark palette.
var DefaultTheme = Theme{
	Border: lipgloss.Color("#404040"),
	Muted:  lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	DetailBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	Value: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),

	// Exception badges: an under-approval is a missed approval (warm),
	// an over-approval is a questionable approval (cold).
	Under: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#f59e0b")),
	Over: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3b82f6")),

	Approved: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	Rejected: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#7c3aed")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
}

// tableStyles adapts the default bubbles table styles to the theme.
func (t Theme) tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = t.Selected
	return s
}
