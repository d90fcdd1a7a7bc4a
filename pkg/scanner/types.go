package scanner

import (
	"time"

	"github.com/sonemaro/dtaprep/pkg/dta"
)

// DefaultMatch is the substring a file name needs to be picked up
const DefaultMatch = "DTA"

// File is a discovered Gamry export
type File struct {
	Name    string
	Path    string
	Size    int64
	Kind    dta.Kind
	ModTime time.Time
}

// Result contains the discovery results
type Result struct {
	Root   string
	Files  []File
	Errors map[string]error
	Stats  ScanStats
}

// TotalSize sums the size of every discovered file
func (r Result) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// ScanStats contains statistics about the discovery
type ScanStats struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Entries is the number of directory entries looked at
	Entries int

	// Found is the number of matching files kept
	Found int

	// Ignored counts matching files dropped by an ignore pattern
	Ignored int

	// Skipped counts directories and non-matching names
	Skipped int
}

// Config contains scanner configuration options
type Config struct {
	// Match is the case-sensitive substring a file name must contain
	// (DefaultMatch when empty)
	Match string
}
