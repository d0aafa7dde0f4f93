package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kyleseven/ReLive-Compress/internal/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Faint(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

// render applies s only when colors are enabled.
func render(s lipgloss.Style, text string) string {
	if !term.Enabled() {
		return text
	}
	return s.Render(text)
}
