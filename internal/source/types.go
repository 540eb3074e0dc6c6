package source

import (
	"time"

	"github.com/theirongolddev/huntlog/internal/parser"
)

// DiscoveredFile represents a session log export found during directory scanning.
type DiscoveredFile struct {
	Path      string
	Name      string // file name without extension
	Character string // first directory under the scan root, if any
	ModTime   time.Time
	Size      int64
}

// ParseResult holds the output of parsing a single log file.
type ParseResult struct {
	File   DiscoveredFile
	Fields *parser.Fields
	// Claimed is false when no strategy recognised the log and the fields
	// come from best-effort extraction.
	Claimed bool
	Err     error
}
