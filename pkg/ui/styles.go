package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#1D9BF0")
	green   = lipgloss.Color("#00BA7C")
	yellow  = lipgloss.Color("#FFD400")
	red     = lipgloss.Color("#F4212E")
	magenta = lipgloss.Color("#F91880")
	dim     = lipgloss.Color("#71767B")

	labelStyle     = lipgloss.NewStyle().Foreground(accent).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(yellow)
	highlightStyle = lipgloss.NewStyle().Foreground(magenta)
	dimStyle       = lipgloss.NewStyle().Foreground(dim)
	barStyle       = lipgloss.NewStyle().Foreground(green)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#333639"))

	logoStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 2)
)

// Colour helpers for inline text
func Cyan(s string) string    { return labelStyle.Render(s) }
func Yellow(s string) string  { return valueStyle.Render(s) }
func Red(s string) string     { return errorStyle.Render(s) }
func Green(s string) string   { return successStyle.Render(s) }
func Magenta(s string) string { return highlightStyle.Render(s) }
func Dim(s string) string     { return dimStyle.Render(s) }
