package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/tui"
	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Without a forced profile lipgloss may pick Ascii and drop backgrounds.
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alternate screen.
	logger = zerolog.Nop()

	app := tui.NewApp(tui.Options{
		Days:      flagDays,
		Monster:   flagMonster,
		Character: flagCharacter,
		Goal:      appCfg.Goals.MonthlyBalance,
		Load:      tuiLoad,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// tuiLoad imports pending logs from the import directory and returns every
// stored session.
func tuiLoad(progress func(current, total int)) ([]model.HuntSession, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if dir := appCfg.General.ImportDir; dir != "" && !flagNoSync {
		opts, err := loadOptions()
		if err != nil {
			return nil, err
		}
		if _, err := pipeline.LoadWithCache(dir, opts, st, progress); err != nil {
			return nil, err
		}
	}
	return st.LoadAllSessions()
}
