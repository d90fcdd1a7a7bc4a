package output

import (
	"time"
)

// Report describes one conversion run
type Report struct {
	Directory string
	OutputDir string
	Units     string
	// Shift is nil when no voltage shift was applied
	Shift *float64
	// Workers is 0 for a sequential run
	Workers  int
	Started  time.Time
	Duration time.Duration
	Files    []FileReport
	Totals   Totals
}

// FileReport is the outcome for a single input file
type FileReport struct {
	Name         string
	Output       string
	Kind         string
	Size         int64
	LinesRead    int64
	LinesWritten int64
	BytesWritten int64
	Duration     time.Duration
	// Error is empty for converted files
	Error string
}

// Failed reports whether the file could not be converted
func (f FileReport) Failed() bool {
	return f.Error != ""
}

// Mode is "sequential" or "pool"
func (r *Report) Mode() string {
	if r.Workers > 0 {
		return "pool"
	}
	return "sequential"
}
