package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, dataAge string, refreshing, autoRefresh bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [?]help  [r]efresh  [q]uit"
	right := ""
	switch {
	case refreshing:
		right = "importing… "
	case dataAge != "":
		right = fmt.Sprintf("loaded in %s ", dataAge)
	}
	if autoRefresh {
		right = "auto · " + right
	}

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return style.Render(left + fmt.Sprintf("%*s", padding, "") + right)
}
