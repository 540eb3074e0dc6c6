package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/source"
	"github.com/theirongolddev/huntlog/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file|dir]",
	Short: "Import session logs as they are saved",
	Long: "Watch a log file or directory and import sessions whenever a log is\n" +
		"written. Defaults to the configured import directory.",
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var flagWatchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", 750*time.Millisecond, "Wait this long after the last write before importing")
	watchCmd.Flags().StringVar(&flagImportAs, "as", "", "Character a watched file belongs to")
	rootCmd.AddCommand(watchCmd)
}

// watcher imports logs under root, or just root itself when it is a file.
type watcher struct {
	root   string
	isFile bool
	st     *store.Store
	parser *parser.Parser
	opts   pipeline.LoadOptions
}

func runWatch(_ *cobra.Command, args []string) error {
	target := appCfg.General.ImportDir
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" {
		return errors.New("nothing to watch: pass a path or set general.import_dir")
	}
	root, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	info, err := os.Stat(root)
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

	w := &watcher{root: root, isFile: !info.IsDir(), st: st, parser: opts.Parser, opts: opts}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := w.addDirs(fsw); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("  Watching %s (Ctrl+C to stop)\n", root)
	w.sync()
	return w.loop(ctx, fsw)
}

// addDirs registers the directories to watch. fsnotify is not recursive,
// so every subdirectory of a watched tree is added on its own. A single
// file is watched through its directory so editors that replace the file
// on save are still seen.
func (w *watcher) addDirs(fsw *fsnotify.Watcher) error {
	if w.isFile {
		return fsw.Add(filepath.Dir(w.root))
	}
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

func (w *watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if w.isFile {
		return ev.Name == w.root
	}
	return source.IsLogFile(ev.Name)
}

func (w *watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	timer := time.NewTimer(flagWatchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n  Stopped watching.")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			// New character directories show up as Create events.
			if !w.isFile && ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = fsw.Add(ev.Name)
					continue
				}
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("log changed")
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(flagWatchDebounce)
			pending = true

		case <-timer.C:
			pending = false
			w.sync()

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// sync imports whatever changed since the last run. Failures are logged so
// one bad log does not stop the watch.
func (w *watcher) sync() {
	if w.isFile {
		w.syncFile()
		return
	}

	cr, err := pipeline.LoadWithCache(w.root, w.opts, w.st, nil)
	if err != nil {
		logger.Error().Err(err).Str("dir", w.root).Msg("import failed")
		return
	}
	if cr.Imported > 0 {
		fmt.Printf("  %s  imported %d sessions (%d logs unchanged)\n",
			time.Now().Format("15:04:05"), cr.Imported, cr.Unchanged)
	}
}

func (w *watcher) syncFile() {
	tracked, err := w.st.GetTrackedFiles()
	if err != nil {
		logger.Error().Err(err).Msg("reading file tracker")
		return
	}
	df, err := source.Stat(w.root)
	if err != nil {
		logger.Warn().Err(err).Str("file", w.root).Msg("log not readable")
		return
	}
	if fi, ok := tracked[w.root]; ok && fi.MtimeNs == df.ModTime.UnixNano() && fi.SizeBytes == df.Size {
		return
	}

	in, err := readInput([]string{w.root})
	if err != nil {
		logger.Warn().Err(err).Str("file", w.root).Msg("log not readable")
		return
	}
	hs, err := storeInput(w.st, w.parser, in, flagImportAs)
	if err != nil {
		logger.Warn().Err(err).Msg("log not imported")
		return
	}
	printImported(hs)
}
