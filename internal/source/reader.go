// Package source discovers and reads hunting session log exports.
package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/theirongolddev/huntlog/internal/parser"
)

// ErrInputTooLarge is returned when a log exceeds the configured size limit.
var ErrInputTooLarge = errors.New("session log exceeds size limit")

// ReadLog reads a whole session log from r. A limit of zero or less means
// no limit.
func ReadLog(r io.Reader, limit int64) (string, error) {
	if limit > 0 && limit < math.MaxInt64 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading session log: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%w (%d bytes)", ErrInputTooLarge, limit)
	}
	return string(data), nil
}

// ParseFile reads one log file and parses it, falling back to best-effort
// extraction when no strategy recognises the layout.
func ParseFile(p *parser.Parser, df DiscoveredFile, limit int64) ParseResult {
	res := ParseResult{File: df}

	f, err := os.Open(df.Path)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = f.Close() }()

	text, err := ReadLog(f, limit)
	if err != nil {
		res.Err = err
		return res
	}

	res.Fields, res.Claimed, res.Err = p.ParseStrict(text)
	return res
}
