package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/apiclient"
	"github.com/theirongolddev/huntlog/internal/cli"
	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/source"
	"github.com/theirongolddev/huntlog/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import [file|-]",
	Short: "Import one session log from a file or stdin",
	Long: "Parse a saved session log and store it. With no argument or \"-\" the log\n" +
		"is read from stdin, so it can be pasted straight from the game client.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var importDirCmd = &cobra.Command{
	Use:   "import-dir <dir>",
	Short: "Import every new or changed log under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportDir,
}

var (
	flagImportAs     string
	flagStrategyOnly bool
	flagImportRemote string
)

func init() {
	importCmd.Flags().StringVar(&flagImportAs, "as", "", "Character the session belongs to")
	importCmd.Flags().BoolVar(&flagStrategyOnly, "strategy-only", false, "Reject logs no known layout recognises")
	importCmd.Flags().StringVar(&flagImportRemote, "remote", "", "Send the log to a running daemon at this address instead")
	rootCmd.AddCommand(importCmd, importDirCmd)
}

// logInput is one log read from a file or stdin. File is zero for stdin.
type logInput struct {
	Text string
	File source.DiscoveredFile
}

func (in logInput) label() string {
	if in.File.Path == "" {
		return "stdin"
	}
	return in.File.Path
}

func readInput(args []string) (logInput, error) {
	limit := appCfg.Parser.MaxInputBytes
	if len(args) == 0 || args[0] == "-" {
		text, err := source.ReadLog(os.Stdin, limit)
		return logInput{Text: text}, err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return logInput{}, err
	}
	df, err := source.Stat(path)
	if err != nil {
		return logInput{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return logInput{}, err
	}
	defer func() { _ = f.Close() }()

	text, err := source.ReadLog(f, limit)
	return logInput{Text: text, File: df}, err
}

// parseInput runs the strategies and, unless strategyOnly is set, the
// best-effort extractor for logs none of them claims.
func parseInput(p *parser.Parser, in logInput, strategyOnly bool) (*parser.Fields, bool, error) {
	if strategyOnly {
		if f, ok := p.Parse(in.Text); ok {
			return f, true, nil
		}
		return nil, false, fmt.Errorf("%s: no known log layout recognises this text", in.label())
	}
	f, claimed, err := p.ParseStrict(in.Text)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", in.label(), err)
	}
	return f, claimed, nil
}

func runImport(_ *cobra.Command, args []string) error {
	in, err := readInput(args)
	if err != nil {
		return err
	}
	if flagImportRemote != "" {
		return importRemote(in)
	}
	p, err := newParser()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	hs, err := storeInput(st, p, in, flagImportAs)
	if err != nil {
		return err
	}
	printImported(hs)
	return nil
}

// storeInput parses one log and saves the session it describes. A file
// input is also recorded in the file tracker.
func storeInput(st *store.Store, p *parser.Parser, in logInput, character string) (model.HuntSession, error) {
	fields, claimed, err := parseInput(p, in, flagStrategyOnly)
	if err != nil {
		return model.HuntSession{}, err
	}
	if !claimed {
		logger.Info().Str("input", in.label()).Msg("no known layout, used best-effort extraction")
	}

	if character == "" && in.File.Path != "" {
		character = characterFromPath(in.File.Path)
	}
	hs, err := pipeline.Assemble(fields, pipeline.AssembleOptions{
		SourcePath: in.File.Path,
		Character:  character,
		Items:      config.NewItemValuer(appCfg),
		ImportedAt: time.Now(),
	})
	if err != nil {
		return model.HuntSession{}, fmt.Errorf("%s: %w", in.label(), err)
	}

	var mtime, size int64
	if in.File.Path != "" {
		mtime, size = in.File.ModTime.UnixNano(), in.File.Size
	}
	if err := st.SaveSession(hs, mtime, size); err != nil {
		return model.HuntSession{}, fmt.Errorf("saving session: %w", err)
	}
	return hs, nil
}

// importRemote hands the log to a daemon, which parses and stores it with
// its own settings.
func importRemote(in logInput) error {
	client, err := apiclient.New(flagImportRemote)
	if err != nil {
		return err
	}
	character := flagImportAs
	if character == "" && in.File.Path != "" {
		character = characterFromPath(in.File.Path)
	}
	hs, err := client.CreateSession(context.Background(), in.Text, character, flagStrategyOnly)
	if err != nil {
		return fmt.Errorf("%s: %w", in.label(), err)
	}
	printImported(hs)
	return nil
}

func printImported(hs model.HuntSession) {
	xph, _ := pipeline.XPPerHour(hs)
	fmt.Printf("  Imported session %s  %s  %s  %s XP/h  balance %s\n",
		hs.ID[:8],
		hs.StartTime.Local().Format("Jan 02 15:04"),
		cli.FormatMinutes(hs.DurationMinutes),
		cli.FormatCompact(xph),
		cli.RenderBalance(hs.Balance))
}

// characterFromPath uses the parent directory as the character name, the
// same convention ScanDir applies under an import directory.
func characterFromPath(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}

// importProgress drives the import-dir progress bar. update is called from
// the loader's workers, so all state sits behind mu.
type importProgress struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool
	bar   *progressbar.ProgressBar
	last  int
}

func newImportProgress(w io.Writer, quiet bool) *importProgress {
	return &importProgress{w: w, quiet: quiet}
}

func (p *importProgress) update(current, total int) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("  Importing logs"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	// Workers finish out of order; the bar only moves forward.
	if current > p.last {
		p.last = current
		_ = p.bar.Set(current)
	}
}

func (p *importProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func runImportDir(_ *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	opts, err := loadOptions()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	progress := newImportProgress(os.Stderr, flagQuiet)

	start := time.Now()
	cr, err := pipeline.LoadWithCache(dir, opts, st, progress.update)
	if err != nil {
		return err
	}
	progress.finish()

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Import " + dir,
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Logs found", formatNumber(int64(cr.TotalFiles))},
			{"Characters", formatNumber(int64(cr.CharacterCount))},
			{"Unchanged", formatNumber(int64(cr.Unchanged))},
			{"Imported", formatNumber(int64(cr.Imported))},
			{"Best-effort", formatNumber(int64(cr.Unclaimed))},
			{"Rejected", formatNumber(int64(cr.Rejected))},
			{"Read errors", formatNumber(int64(cr.FileErrors))},
			{"Diagnostics", formatNumber(int64(cr.Diagnostics))},
		},
	}))
	fmt.Printf("  Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
