// Package tui provides the interactive Bubble Tea dashboard for huntlog.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/tui/components"
	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

// LoadFunc imports pending logs and returns every stored session. progress
// may be called from any goroutine.
type LoadFunc func(progress func(current, total int)) ([]model.HuntSession, error)

// Options configures the dashboard.
type Options struct {
	Days      int
	Monster   string
	Character string
	// Goal is the monthly balance goal, nil when none is set.
	Goal            *int64
	Load            LoadFunc
	RefreshInterval time.Duration
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Sessions []model.HuntSession
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports import progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Sessions []model.HuntSession
	LoadTime time.Duration
	Err      error
}

const (
	tabOverview = iota
	tabSessions
	tabMonsters
	tabItems
)

// App is the root Bubble Tea model.
type App struct {
	opts Options

	sessions []model.HuntSession
	loaded   bool
	loadTime time.Duration
	loadErr  error

	autoRefresh bool
	lastRefresh time.Time
	refreshing  bool

	// Derived from sessions for the current window.
	filtered    []model.HuntSession
	stats       model.SummaryStats
	prevStats   model.SummaryStats
	dailyStats  []model.DailyStats
	monsters    []model.MonsterStats
	items       []model.ItemStats
	characters  []model.CharacterStats
	todayHourly []model.HourlyStats
	goal        model.GoalStats

	width     int
	height    int
	activeTab int
	showHelp  bool

	sessState sessionsState

	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 10
	minHalfPageScroll = 1
	minContentHeight  = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Days <= 0 {
		opts.Days = 30
	}
	if opts.RefreshInterval < 10*time.Second {
		opts.RefreshInterval = 30 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:    opts,
		spinner: sp,
		loadSub: make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.Load, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a *App) recompute() {
	now := time.Now()
	since := now.AddDate(0, 0, -a.opts.Days)
	until := now.Add(time.Minute)

	filtered := pipeline.FilterByMonster(a.sessions, a.opts.Monster)
	filtered = pipeline.FilterByCharacter(filtered, a.opts.Character)

	a.stats = pipeline.Aggregate(filtered, since, until)
	a.prevStats = pipeline.Aggregate(filtered, since.AddDate(0, 0, -a.opts.Days), since)
	a.dailyStats = pipeline.AggregateDays(filtered, since, until)
	a.monsters = pipeline.AggregateMonsters(filtered, since, until)
	a.items = pipeline.AggregateItems(filtered, since, until)
	a.characters = pipeline.AggregateCharacters(filtered, since, until)
	a.todayHourly = pipeline.AggregateTodayHourly(filtered, now)
	if a.opts.Goal != nil {
		a.goal = pipeline.ComputeGoal(filtered, *a.opts.Goal, now)
	}

	a.filtered = pipeline.FilterByTime(filtered, since, until)
	sort.Slice(a.filtered, func(i, j int) bool {
		return a.filtered[i].StartTime.After(a.filtered[j].StartTime)
	})

	if n := len(a.getSearchFilteredSessions()); a.sessState.cursor >= n {
		a.sessState.cursor = n - 1
	}
	if a.sessState.cursor < 0 {
		a.sessState.cursor = 0
	}
	a.sessState.detailScroll = 0
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.sessions = msg.Sessions
		a.loadErr = msg.Err
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.recompute()
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.opts.RefreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts.Load))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.sessions = msg.Sessions
			a.loadTime = msg.LoadTime
			a.recompute()
		}
		return a, nil
	}

	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabSessions && !a.sessState.searching {
			a.moveCursor(-1)
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabSessions && !a.sessState.searching {
			a.moveCursor(1)
		}
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	n := len(a.getSearchFilteredSessions())
	c := a.sessState.cursor + delta
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	if c != a.sessState.cursor {
		a.sessState.cursor = c
		a.sessState.detailScroll = 0
	}
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	if a.activeTab == tabSessions && a.sessState.searching {
		return a.updateSessionsSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.activeTab == tabSessions {
		if next, cmd, ok := a.updateSessionsKey(key); ok {
			return next, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts.Load)
		}
	case "R":
		a.autoRefresh = !a.autoRefresh
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateSessionsKey(key string) (App, tea.Cmd, bool) {
	compact := a.isCompactLayout()
	switch key {
	case "/":
		a.sessState.searching = true
		a.sessState.searchInput = newSearchInput()
		a.sessState.searchInput.Focus()
		return a, textinput.Blink, true
	case "q":
		if !compact && a.sessState.viewMode == sessViewDetail {
			a.sessState.viewMode = sessViewSplit
			return a, nil, true
		}
	case "enter", "f":
		if !compact {
			a.sessState.viewMode = sessViewDetail
		}
		return a, nil, true
	case "esc":
		if a.sessState.searchQuery != "" {
			a.sessState.searchQuery = ""
			a.sessState.cursor = 0
			a.sessState.offset = 0
			return a, nil, true
		}
		a.sessState.viewMode = sessViewSplit
		return a, nil, true
	case "j", "down":
		a.moveCursor(1)
		return a, nil, true
	case "k", "up":
		a.moveCursor(-1)
		return a, nil, true
	case "g":
		a.sessState.cursor = 0
		a.sessState.offset = 0
		a.sessState.detailScroll = 0
		return a, nil, true
	case "G":
		a.moveCursor(len(a.getSearchFilteredSessions()))
		return a, nil, true
	case "J":
		a.sessState.detailScroll++
		return a, nil, true
	case "K":
		if a.sessState.detailScroll > 0 {
			a.sessState.detailScroll--
		}
		return a, nil, true
	case "ctrl+d", "ctrl+u":
		halfPage := (a.height - scrollOverhead) / 2
		if halfPage < minHalfPageScroll {
			halfPage = minHalfPageScroll
		}
		if key == "ctrl+u" {
			halfPage = -halfPage
		}
		a.sessState.detailScroll = max(0, a.sessState.detailScroll+halfPage)
		return a, nil, true
	}
	return a, nil, false
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.showHelp:
		return a.viewHelp()
	default:
		return a.viewMain()
	}
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  huntlog needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("⚔ huntlog"))
	b.WriteString(subtitleStyle.Render(" · Hunting Sessions"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Importing logs\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Loading sessions..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o s m i", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Navigate sessions"},
			{"J K", "Scroll detail pane"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Actions", [][2]string{
			{"/", "Search sessions"},
			{"Enter", "Expand session"},
			{"Esc", "Back / Clear search"},
			{"r", "Import new logs"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("⚔ Keyboard Shortcuts"))
	for _, sec := range sections {
		b.WriteString("\n\n")
		b.WriteString(sectionStyle.Render(sec.title))
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "\n  %s  %s",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filterStr := pillStyle.Render(" ") + accentStyle.Render(fmt.Sprintf("%dd", a.opts.Days))
	if a.opts.Character != "" {
		filterStr += pillStyle.Render(" │ ") + accentStyle.Render(a.opts.Character)
	}
	if a.opts.Monster != "" {
		filterStr += pillStyle.Render(" │ ") + accentStyle.Render(a.opts.Monster)
	}
	if a.loadErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
		filterStr += pillStyle.Render(" │ ") + errStyle.Render(truncStr(a.loadErr.Error(), w/2))
	}
	filterRow := lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	header := components.RenderTabBar(a.activeTab, w) + "\n" + filterRow
	statusBar := components.RenderStatusBar(w, fmt.Sprintf("%.1fs", a.loadTime.Seconds()), a.refreshing, a.autoRefresh)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabSessions:
		content = a.renderSessionsContent(a.getSearchFilteredSessions(), cw, contentH)
	case tabMonsters:
		content = a.renderMonstersTab(cw)
	case tabItems:
		content = a.renderItemsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Data loading ───────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd runs load in a background goroutine, streaming ProgressMsg
// updates and a final DataLoadedMsg through sub.
func loadDataCmd(load LoadFunc, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Dropped updates are fine; the next one catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			sessions, err := load(progressFn)
			sub <- DataLoadedMsg{Sessions: sessions, LoadTime: time.Since(start), Err: err}
		}()
		return <-sub
	}
}

func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func refreshDataCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		sessions, err := load(nil)
		return RefreshDataMsg{Sessions: sessions, LoadTime: time.Since(start), Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds X-axis labels for days, which is sorted
// newest-first; labels come back oldest-left.
func chartDateLabels(days []model.DailyStats) []string {
	n := len(days)
	labels := make([]string, n)
	prevMonth := time.Month(0)
	for i := range days {
		dt := days[n-1-i].Date
		switch {
		case i == 0, dt.Month() != prevMonth && i != n-1:
			labels[i] = dt.Format("Jan")
		default:
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background
// color so gaps between cards are filled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at column x of the tab bar, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + components.TabSeparatorWidth
	}
	return -1
}

// ─── Session search ─────────────────────────────────────────────

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "character, monster or item"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	return ti
}

func (a App) updateSessionsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.sessState.searchQuery = strings.TrimSpace(a.sessState.searchInput.Value())
		a.sessState.searching = false
		a.sessState.cursor = 0
		a.sessState.offset = 0
		a.sessState.detailScroll = 0
		return a, nil
	case "esc":
		a.sessState.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.sessState.searchInput, cmd = a.sessState.searchInput.Update(msg)
	return a, cmd
}

func (a App) getSearchFilteredSessions() []model.HuntSession {
	if a.sessState.searchQuery == "" {
		return a.filtered
	}
	return filterSessionsBySearch(a.filtered, a.sessState.searchQuery)
}

// filterSessionsBySearch keeps sessions whose character, monsters or items
// contain query, ignoring case.
func filterSessionsBySearch(sessions []model.HuntSession, query string) []model.HuntSession {
	q := strings.ToLower(query)
	var out []model.HuntSession
	for _, s := range sessions {
		if matchesSearch(s, q) {
			out = append(out, s)
		}
	}
	return out
}

func matchesSearch(s model.HuntSession, q string) bool {
	if strings.Contains(strings.ToLower(s.Character), q) {
		return true
	}
	for _, m := range s.KilledMonsters {
		if strings.Contains(strings.ToLower(m.Name), q) {
			return true
		}
	}
	for _, it := range s.LootedItems {
		if strings.Contains(strings.ToLower(it.Name), q) {
			return true
		}
	}
	return false
}
