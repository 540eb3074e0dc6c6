package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/tui/components"
	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

// Split is the zero value so it is the default.
const (
	sessViewSplit = iota
	sessViewDetail
)

// sessionsState holds the sessions tab state.
type sessionsState struct {
	cursor       int
	viewMode     int
	offset       int // scroll offset for the list
	detailScroll int

	searching   bool
	searchInput textinput.Model
	searchQuery string
}

func (a App) renderSessionsContent(sessions []model.HuntSession, cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var search string
	switch {
	case a.sessState.searching:
		search = a.sessState.searchInput.View() + "\n"
	case a.sessState.searchQuery != "":
		search = muted.Render(fmt.Sprintf("filter: %q  [esc] clear", a.sessState.searchQuery)) + "\n"
	}
	if search != "" {
		h -= lipgloss.Height(search)
	}

	if len(sessions) == 0 {
		return search + components.ContentCard("Sessions", muted.Render("No sessions found"), cw)
	}

	if a.sessState.viewMode == sessViewDetail && !a.isCompactLayout() {
		return search + a.renderSessionDetail(sessions, cw, h)
	}
	return search + a.renderSessionsSplit(sessions, cw, h)
}

func (a App) renderSessionsSplit(sessions []model.HuntSession, cw, h int) string {
	t := theme.Active
	ss := a.sessState
	if ss.cursor >= len(sessions) {
		return ""
	}

	leftW := max(cw/3, 34)
	rightW := cw - leftW
	if a.isCompactLayout() {
		leftW, rightW = cw, 0
	}
	leftInner := components.CardInnerWidth(leftW)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	visible := max(h-4, 5)
	offset := ss.offset
	if ss.cursor < offset {
		offset = ss.cursor
	}
	if ss.cursor >= offset+visible {
		offset = ss.cursor - visible + 1
	}
	end := min(offset+visible, len(sessions))

	var list strings.Builder
	for i := offset; i < end; i++ {
		s := sessions[i]
		line := fmt.Sprintf("%-12s %7s %7s %8s",
			s.StartTime.Local().Format("Jan 02 15:04"),
			cli.FormatMinutes(s.DurationMinutes),
			cli.FormatCompact(s.TotalXPGain),
			cli.FormatGold(s.Balance))
		line = truncStr(line, leftInner)
		if i == ss.cursor {
			list.WriteString(selectedStyle.Width(leftInner).Render(line))
		} else {
			list.WriteString(rowStyle.Render(line))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	leftCard := components.ContentCard(fmt.Sprintf("Sessions [%d]", len(sessions)), list.String(), leftW)
	if rightW == 0 {
		return leftCard
	}

	sel := sessions[ss.cursor]
	body := scrollLines(a.renderDetailBody(sel, rightW), ss.detailScroll, h-3)
	rightCard := components.ContentCard("Session "+shortID(sel.ID), body, rightW)
	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) renderSessionDetail(sessions []model.HuntSession, cw, h int) string {
	ss := a.sessState
	if ss.cursor >= len(sessions) {
		return ""
	}
	sel := sessions[ss.cursor]
	body := scrollLines(a.renderDetailBody(sel, cw), ss.detailScroll, h-3)
	return components.ContentCard("Session "+shortID(sel.ID), body, cw)
}

// renderDetailBody is the full detail of one session, shared by the split
// pane and the full-screen view.
func (a App) renderDetailBody(s model.HuntSession, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	balanceStyle := lipgloss.NewStyle().Foreground(t.BalanceColor(s.Balance)).Background(t.Surface).Bold(true)

	pair := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-10s", label)) + valueStyle.Render(value)
	}

	var body strings.Builder
	who := s.Character
	if who == "" {
		who = "(unknown character)"
	}
	body.WriteString(valueStyle.Bold(true).Render(who))
	body.WriteString(mutedStyle.Render("  " + s.Strategy))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	xph, _ := pipeline.XPPerHour(s)
	lines := []string{
		pair("Time", fmt.Sprintf("%s - %s (%s)",
			s.StartTime.Local().Format("Jan 02 15:04"),
			s.EndTime.Local().Format("15:04"),
			cli.FormatMinutes(s.DurationMinutes))),
		pair("XP", fmt.Sprintf("%s  (%s/h, raw %s)",
			cli.FormatNumber(s.TotalXPGain), cli.FormatCompact(xph), cli.FormatCompact(s.RawXPGain))),
		pair("Loot", cli.FormatGold(s.LootValue)),
		pair("Supplies", cli.FormatGold(s.SuppliesValue)),
		labelStyle.Render(fmt.Sprintf("%-10s", "Balance")) + balanceStyle.Render(cli.FormatGold(s.Balance)),
		pair("Damage", fmt.Sprintf("%s  (%s/h)", cli.FormatCompact(s.DamageDealt), cli.FormatCompact(s.DamagePerHour))),
		pair("Healing", fmt.Sprintf("%s  (%s/h)", cli.FormatCompact(s.HealingDone), cli.FormatCompact(s.HealingPerHour))),
	}
	body.WriteString(strings.Join(lines, "\n"))
	body.WriteString("\n\n")

	body.WriteString(headerStyle.Render(fmt.Sprintf("KILLED MONSTERS (%d)", s.MonstersKilled())))
	body.WriteString("\n")
	if len(s.KilledMonsters) == 0 {
		body.WriteString(mutedStyle.Render("none"))
		body.WriteString("\n")
	}
	for _, m := range s.KilledMonsters {
		body.WriteString(valueStyle.Render(fmt.Sprintf("%6s  %s", cli.FormatNumber(int64(m.Count)), truncStr(m.Name, innerW-8))))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(headerStyle.Render(fmt.Sprintf("LOOTED ITEMS (%s known)", cli.FormatGold(s.ItemsValue()))))
	body.WriteString("\n")
	if len(s.LootedItems) == 0 {
		body.WriteString(mutedStyle.Render("none"))
		body.WriteString("\n")
	}
	for _, it := range s.LootedItems {
		value := "?"
		if it.Value != nil {
			value = cli.FormatGold(*it.Value)
		}
		body.WriteString(valueStyle.Render(fmt.Sprintf("%6s  %-*s", cli.FormatNumber(int64(it.Count)), max(innerW-18, 8), truncStr(it.Name, max(innerW-18, 8)))))
		body.WriteString(labelStyle.Render(fmt.Sprintf("%8s", value)))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[/] search  [enter] expand  [J/K] scroll  [j/k] navigate"))
	return body.String()
}

// scrollLines drops the first offset lines of s and keeps at most h.
func scrollLines(s string, offset, h int) string {
	lines := strings.Split(s, "\n")
	offset = min(max(offset, 0), max(len(lines)-1, 0))
	lines = lines[offset:]
	if h > 0 && len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
