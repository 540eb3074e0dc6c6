package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/store"
)

var (
	flagDays      int
	flagMonster   string
	flagCharacter string
	flagDB        string
	flagQuiet     bool
	flagVerbose   bool
	flagTZ        string
	flagNoSync    bool
)

var (
	appCfg config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:               "huntlog",
	Short:             "Hunting session tracker",
	Long:              "Import hunting session logs and analyze XP, loot, supplies and kills over time.",
	PersistentPreRunE: setup,
	RunE:              runSummary,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagMonster, "monster", "m", "", "Filter to sessions that killed a monster (substring match)")
	rootCmd.PersistentFlags().StringVarP(&flagCharacter, "character", "c", "", "Filter to character (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Session database: file path or postgres:// URL")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log parser diagnostics")
	rootCmd.PersistentFlags().StringVar(&flagTZ, "tz", "", "Time zone for log timestamps and day boundaries (IANA name)")
	rootCmd.PersistentFlags().BoolVar(&flagNoSync, "no-sync", false, "Do not import new logs from the import directory first")
}

// setup loads configuration and installs the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	level := zerolog.WarnLevel
	switch {
	case flagVerbose:
		level = zerolog.DebugLevel
	case flagQuiet:
		level = zerolog.ErrorLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg = cfg

	if !cmd.Flags().Changed("days") && cfg.General.DefaultDays > 0 {
		flagDays = cfg.General.DefaultDays
	}

	tz := flagTZ
	if tz == "" {
		tz = cfg.General.Timezone
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("loading time zone %q: %w", tz, err)
		}
		time.Local = loc
	}
	return nil
}

// dbPath resolves the database from flag, config, then the data dir default.
func dbPath() string {
	switch {
	case flagDB != "":
		return flagDB
	case appCfg.General.Database != "":
		return appCfg.General.Database
	default:
		return pipeline.DBPath()
	}
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	return st, nil
}

// newParser builds the log parser with configured label tables.
func newParser() (*parser.Parser, error) {
	opts := []parser.Option{
		parser.WithLogger(logger),
		parser.WithLocation(time.Local),
	}
	if path := appCfg.Parser.LabelsFile; path != "" {
		labels, err := parser.LoadLabelsFile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, parser.WithLabels(labels))
	}
	return parser.New(opts...), nil
}

func loadOptions() (pipeline.LoadOptions, error) {
	p, err := newParser()
	if err != nil {
		return pipeline.LoadOptions{}, err
	}
	return pipeline.LoadOptions{
		Parser:        p,
		Items:         config.NewItemValuer(appCfg),
		MaxInputBytes: appCfg.Parser.MaxInputBytes,
		Log:           logger,
	}, nil
}

// loadData is the shared data loading path used by all report commands.
// New logs in the configured import directory are imported first.
func loadData() ([]model.HuntSession, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if dir := appCfg.General.ImportDir; dir != "" && !flagNoSync {
		if err := syncImportDir(st, dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("import directory sync failed")
		}
	}

	return st.LoadAllSessions()
}

func syncImportDir(st *store.Store, dir string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Scanning logs [%d/%d]", current, total)
		}
	}

	cr, err := pipeline.LoadWithCache(dir, opts, st, progressFn)
	if err != nil {
		return err
	}
	if !flagQuiet && cr.TotalFiles > cr.Unchanged {
		fmt.Fprintf(os.Stderr, "\r  Imported %d new sessions (%d logs unchanged)    \n",
			cr.Imported, cr.Unchanged)
	}
	return nil
}

// applyFilters returns filtered sessions and the computed time range.
func applyFilters(sessions []model.HuntSession) ([]model.HuntSession, time.Time, time.Time) {
	now := time.Now()
	since := now.AddDate(0, 0, -flagDays)
	until := now.Add(time.Minute)

	filtered := pipeline.FilterByMonster(sessions, flagMonster)
	filtered = pipeline.FilterByCharacter(filtered, flagCharacter)

	return filtered, since, until
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
