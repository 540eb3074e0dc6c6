package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/source"
)

// LoadOptions configures how log files become sessions.
type LoadOptions struct {
	Parser        *parser.Parser
	Items         *config.ItemValuer
	MaxInputBytes int64
	Log           zerolog.Logger
}

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Sessions       []model.HuntSession
	TotalFiles     int
	ParsedFiles    int
	Unclaimed      int // parsed by best-effort extraction
	Rejected       int // parsed but without start/end
	FileErrors     int
	Diagnostics    int
	CharacterCount int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all session logs under dir.
// It uses a bounded worker pool for parallel parsing.
func Load(dir string, opts LoadOptions, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &LoadResult{
		TotalFiles:     len(files),
		CharacterCount: source.CountCharacters(files),
	}
	if len(files) == 0 {
		return result, nil
	}

	now := time.Now()
	for _, pr := range parseFiles(files, opts, 0, len(files), progressFn) {
		if hs, ok := result.collect(pr, opts, now); ok {
			result.Sessions = append(result.Sessions, hs)
		}
	}
	return result, nil
}

// collect folds one parse result into the counters and assembles it.
func (r *LoadResult) collect(pr source.ParseResult, opts LoadOptions, now time.Time) (model.HuntSession, bool) {
	if pr.Err != nil {
		r.FileErrors++
		opts.Log.Warn().Err(pr.Err).Str("file", pr.File.Path).Msg("pipeline: reading log")
		return model.HuntSession{}, false
	}
	r.ParsedFiles++
	r.Diagnostics += len(pr.Fields.Diagnostics)
	if !pr.Claimed {
		r.Unclaimed++
	}

	hs, err := Assemble(pr.Fields, AssembleOptions{
		SourcePath: pr.File.Path,
		Character:  pr.File.Character,
		Items:      opts.Items,
		ImportedAt: now,
	})
	if err != nil {
		r.Rejected++
		opts.Log.Debug().Err(err).Str("file", pr.File.Path).Msg("pipeline: skipping log")
		return model.HuntSession{}, false
	}
	return hs, true
}

// parseFiles parses files on a bounded worker pool. Progress is reported as
// offset+n of total.
func parseFiles(files []source.DiscoveredFile, opts LoadOptions, offset, total int, progressFn ProgressFunc) []source.ParseResult {
	p := opts.Parser
	if p == nil {
		p = parser.New(parser.WithLogger(opts.Log))
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(p, files[idx], opts.MaxInputBytes)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(offset+int(n), total)
				}
			}
		}()
	}

	wg.Wait()
	return results
}
