package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/tui/components"
	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

const breakdownRows = 20

func (a App) renderMonstersTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.monsters) == 0 {
		return components.ContentCard("Monsters", muted.Render("No kills in this window"), cw)
	}

	inner := components.CardInnerWidth(cw)
	total := 0
	rows := make([]components.RankedBar, 0, breakdownRows)
	for _, m := range a.monsters {
		total += m.Kills
	}
	for _, m := range pipeline.Top(a.monsters, breakdownRows) {
		rows = append(rows, components.RankedBar{
			Label: m.Name,
			Value: float64(m.Kills),
			Note:  fmt.Sprintf("%s  %5.1f%%  %3d sess", cli.FormatNumber(int64(m.Kills)), m.SharePercent, m.Sessions),
		})
	}

	title := fmt.Sprintf("Monsters  %s kills, %d kinds", cli.FormatNumber(int64(total)), len(a.monsters))
	return components.ContentCard(title, components.RankedBars(rows, min(24, inner/3), inner, t.Red), cw)
}

func (a App) renderItemsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.items) == 0 {
		return components.ContentCard("Items", muted.Render("No loot in this window"), cw)
	}

	inner := components.CardInnerWidth(cw)
	var known int64
	var unpriced []string
	rows := make([]components.RankedBar, 0, breakdownRows)
	for _, it := range a.items {
		known += it.Value
		if it.Value == 0 {
			unpriced = append(unpriced, it.Name)
		}
	}
	for _, it := range pipeline.Top(a.items, breakdownRows) {
		rows = append(rows, components.RankedBar{
			Label: it.Name,
			Value: float64(it.Value),
			Note:  fmt.Sprintf("%sx  %8s", cli.FormatNumber(int64(it.Count)), cli.FormatGold(it.Value)),
		})
	}

	var body strings.Builder
	body.WriteString(components.RankedBars(rows, min(24, inner/3), inner, t.Yellow))
	if len(unpriced) > 0 {
		body.WriteString("\n\n")
		body.WriteString(muted.Render(truncStr(fmt.Sprintf("No value known for %d items: %s",
			len(unpriced), strings.Join(unpriced, ", ")), inner)))
	}

	title := fmt.Sprintf("Items  %s known value, %d kinds", cli.FormatGold(known), len(a.items))
	return components.ContentCard(title, body.String(), cw)
}
