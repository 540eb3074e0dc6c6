package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/huntlog/internal/source"
	"github.com/theirongolddev/huntlog/internal/store"
)

// CachedLoadResult extends LoadResult with import bookkeeping.
type CachedLoadResult struct {
	LoadResult
	Unchanged int
	Imported  int
}

// LoadWithCache discovers logs under dir, diffs them against the file
// tracker, parses only new or changed files and stores what they yield.
// Sessions from unchanged files are read back from the store.
func LoadWithCache(dir string, opts LoadOptions, st *store.Store, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{
			TotalFiles:     len(files),
			CharacterCount: source.CountCharacters(files),
		},
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := st.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	var changed []source.DiscoveredFile
	unchanged := make(map[string]struct{})
	for _, f := range files {
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == f.ModTime.UnixNano() && cached.SizeBytes == f.Size {
			unchanged[f.Path] = struct{}{}
		} else {
			changed = append(changed, f)
		}
	}
	result.Unchanged = len(unchanged)

	if len(unchanged) > 0 {
		stored, err := st.LoadAllSessions()
		if err != nil {
			return nil, fmt.Errorf("loading stored sessions: %w", err)
		}
		for _, s := range stored {
			if _, ok := unchanged[s.SourcePath]; ok {
				result.Sessions = append(result.Sessions, s)
			}
		}
	}

	if len(changed) == 0 {
		return result, nil
	}

	now := time.Now()
	for _, pr := range parseFiles(changed, opts, result.Unchanged, result.TotalFiles, progressFn) {
		df := pr.File
		hs, ok := result.collect(pr, opts, now)
		if !ok {
			if pr.Err != nil {
				continue
			}
			// A log that no longer yields a session drops what it used to.
			if err := st.DeleteSessionsFromSource(df.Path); err != nil {
				return nil, fmt.Errorf("clearing %s: %w", df.Path, err)
			}
			if err := st.TrackFile(df.Path, df.ModTime.UnixNano(), df.Size); err != nil {
				return nil, fmt.Errorf("tracking %s: %w", df.Path, err)
			}
			continue
		}
		if err := st.SaveSession(hs, df.ModTime.UnixNano(), df.Size); err != nil {
			return nil, fmt.Errorf("saving %s: %w", df.Path, err)
		}
		result.Sessions = append(result.Sessions, hs)
		result.Imported++
	}

	return result, nil
}

// DataDir returns the platform-appropriate data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "huntlog")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "huntlog")
}

// DBPath returns the full path to the default session database.
func DBPath() string {
	return filepath.Join(DataDir(), "huntlog.db")
}
