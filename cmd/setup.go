package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/source"
	"github.com/theirongolddev/huntlog/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the form fields; numbers are edited as text.
type setupValues struct {
	importDir string
	days      int
	goal      string
	theme     string
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	vals := setupValues{
		importDir: cfg.General.ImportDir,
		days:      cfg.General.DefaultDays,
		theme:     cfg.Appearance.Theme,
	}
	if cfg.Goals.MonthlyBalance != nil {
		vals.goal = strconv.FormatInt(*cfg.Goals.MonthlyBalance, 10)
	}

	if err := newSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return err
	}

	cfg.General.ImportDir = strings.TrimSpace(vals.importDir)
	cfg.General.DefaultDays = vals.days
	cfg.Appearance.Theme = vals.theme
	cfg.Goals.MonthlyBalance = nil
	if g := strings.TrimSpace(vals.goal); g != "" {
		n, _ := strconv.ParseInt(g, 10, 64)
		cfg.Goals.MonthlyBalance = &n
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if cfg.General.ImportDir != "" {
		files, _ := source.ScanDir(cfg.General.ImportDir)
		fmt.Printf("  Found %s logs for %d characters in %s\n",
			formatNumber(int64(len(files))), source.CountCharacters(files), cfg.General.ImportDir)
	}
	fmt.Println("  Run `huntlog setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func newSetupForm(vals *setupValues) *huh.Form {
	themes := huh.NewOptions(theme.Names()...)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to huntlog!").
				Description("Import hunting session logs and track XP, loot and profit."),
			huh.NewInput().
				Title("Log directory").
				Description("Saved session logs are imported from here. One subdirectory per character.").
				Placeholder("~/hunts (optional)").
				Value(&vals.importDir),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Default time range").
				Options(
					huh.NewOption("7 days", 7),
					huh.NewOption("30 days", 30),
					huh.NewOption("90 days", 90),
				).
				Value(&vals.days),
			huh.NewInput().
				Title("Monthly balance goal").
				Description("Gold profit to aim for each month. Leave empty for none.").
				Value(&vals.goal).
				Validate(validateGoal),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&vals.theme),
		),
	)
}

func validateGoal(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return errors.New("enter a whole number of gold")
	}
	return nil
}
