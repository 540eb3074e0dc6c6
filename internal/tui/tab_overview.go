package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/tui/components"
	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	stats := a.stats
	prev := a.prevStats
	var b strings.Builder

	sessDelta := fmt.Sprintf("%.1f/day", stats.SessionsPerDay)
	if prev.SessionsPerDay > 0 {
		pct := (stats.SessionsPerDay - prev.SessionsPerDay) / prev.SessionsPerDay * 100
		sessDelta += fmt.Sprintf(" (%+.0f%%)", pct)
	}
	xpDelta := cli.FormatCompact(int64(stats.XPPerDay)) + "/day"
	if prev.TotalXPGain > 0 {
		xpDelta += " (" + cli.FormatDelta(stats.TotalXPGain, prev.TotalXPGain) + ")"
	}
	balanceDelta := cli.FormatGold(int64(stats.BalancePerDay)) + "/day"
	if prev.Balance != 0 {
		balanceDelta += " (" + cli.FormatDelta(stats.Balance, prev.Balance) + ")"
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Sessions", Value: cli.FormatNumber(int64(stats.TotalSessions)), Delta: sessDelta},
		{Label: "Hunted", Value: cli.FormatMinutes(stats.TotalMinutes), Delta: fmt.Sprintf("%d active days", stats.ActiveDays)},
		{Label: "XP", Value: cli.FormatCompact(stats.TotalXPGain), Delta: xpDelta, Color: t.Blue},
		{Label: "XP/h", Value: cli.FormatCompact(int64(stats.AvgXPPerHour)),
			Delta: fmt.Sprintf("best %s", cli.FormatCompact(stats.BestXPPerHour))},
		{Label: "Balance", Value: cli.FormatGold(stats.Balance), Delta: balanceDelta, Color: t.BalanceColor(stats.Balance)},
	}, cw))
	b.WriteString("\n")

	if days := a.dailyStats; len(days) > 0 {
		vals := make([]float64, len(days))
		for i, d := range days {
			vals[len(days)-1-i] = float64(d.TotalXPGain)
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily XP (%dd)", a.opts.Days),
			components.BarChart(vals, chartDateLabels(days), t.Blue, components.CardInnerWidth(cw), 8),
			cw,
		))
		b.WriteString("\n")
	}

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	left := a.renderEconomyCard(halves[0])
	right := a.renderTodayCard(halves[1])
	if a.isCompactLayout() {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
	}

	return b.String()
}

// renderEconomyCard shows loot against supplies, the goal and the
// per-character split.
func (a App) renderEconomyCard(w int) string {
	t := theme.Active
	stats := a.stats
	inner := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	balanceStyle := lipgloss.NewStyle().Foreground(t.BalanceColor(stats.Balance)).Background(t.Surface).Bold(true)

	var body strings.Builder
	fmt.Fprintf(&body, "%s %s\n", labelStyle.Render("Loot:    "), valueStyle.Render(cli.FormatGold(stats.LootValue)))
	fmt.Fprintf(&body, "%s %s\n", labelStyle.Render("Supplies:"), valueStyle.Render(cli.FormatGold(stats.SuppliesValue)))
	fmt.Fprintf(&body, "%s %s\n", labelStyle.Render("Balance: "), balanceStyle.Render(cli.FormatGold(stats.Balance)))

	if a.opts.Goal != nil {
		g := a.goal
		pct := g.GoalPercent / 100
		note := fmt.Sprintf("%s of %s, %dd left", cli.FormatGold(g.CurrentBalance), cli.FormatGold(g.MonthlyGoal), g.DaysRemaining)
		body.WriteString("\n")
		body.WriteString(components.GoalBar("Month", pct, note, 6, max(inner-lipgloss.Width(note)-14, 8)))
		body.WriteString("\n")
	}

	if len(a.characters) > 1 {
		rows := make([]components.RankedBar, 0, len(a.characters))
		for _, c := range a.characters {
			name := c.Character
			if name == "" {
				name = "(unknown)"
			}
			rows = append(rows, components.RankedBar{
				Label: name,
				Value: float64(c.TotalXPGain),
				Note:  cli.FormatCompact(c.TotalXPGain) + " XP",
			})
		}
		body.WriteString("\n")
		body.WriteString(components.RankedBars(rows, min(16, inner/3), inner, t.Accent))
	}

	return components.ContentCard("Economy", body.String(), w)
}

// renderTodayCard charts today's session starts by hour.
func (a App) renderTodayCard(w int) string {
	t := theme.Active

	vals := make([]float64, 24)
	var xp int64
	for _, h := range a.todayHourly {
		if h.Hour >= 0 && h.Hour < 24 {
			vals[h.Hour] = float64(h.TotalXPGain)
		}
		xp += h.TotalXPGain
	}

	height := 8
	if a.isCompactLayout() {
		height = 6
	}
	return components.ContentCard(
		fmt.Sprintf("Today (%s XP)", cli.FormatCompact(xp)),
		components.BarChart(vals, hourLabels24(), t.Accent, components.CardInnerWidth(w), height),
		w,
	)
}

// hourLabels24 returns X-axis labels for 24 hourly buckets.
func hourLabels24() []string {
	labels := make([]string, 24)
	for i := range labels {
		h := i % 12
		if h == 0 {
			h = 12
		}
		suffix := "a"
		if i >= 12 {
			suffix = "p"
		}
		labels[i] = fmt.Sprintf("%d%s", h, suffix)
	}
	return labels
}
