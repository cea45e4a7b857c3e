package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	// User prompt style
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)
	// NO .Background() = transparent!

	// Tool result and summary labels
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	// Hints and neutral notices
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	// Banner title
	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)
)

// FormatHints formats alternating keys and descriptions for the banner.
// Keys remain default color, descriptions are rendered in accent blue+bold.
// Usage: FormatHints("exit", "Quit", "Ctrl+C", "Quit")
func FormatHints(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}
