package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette used for command summaries.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6C7086")
	colorSuccess = lipgloss.Color("#A6E3A1")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorError   = lipgloss.Color("#F38BA8")
	colorBorder  = lipgloss.Color("#45475A")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted).Width(16)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

// field is one label/value line of a summary box.
type field struct {
	label string
	value string
}

// renderBox draws a titled box of aligned label/value lines.
func renderBox(title string, fields []field) string {
	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, titleStyle.Render(title))
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		lines = append(lines, labelStyle.Render(f.label)+f.value)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func statusText(ok bool) string {
	if ok {
		return successStyle.Render("success")
	}
	return errorStyle.Render("failed")
}
