package config

import "time"

// ReportFormat represents the supported run report formats
type ReportFormat string

const (
	// ReportFormatText is the tree listing with a totals block
	ReportFormatText ReportFormat = "text"

	// ReportFormatJSON represents the JSON report
	ReportFormatJSON ReportFormat = "json"

	// ReportFormatYAML represents the YAML report
	ReportFormatYAML ReportFormat = "yaml"
)

// Constants for configuration limits and defaults
const (
	// DefaultOutDir is created inside the input directory
	DefaultOutDir = "output_data"

	// DefaultUnits keeps the current in amperes
	DefaultUnits = "A"

	// DefaultWorkers matches the pool size of the multiprocess mode
	DefaultWorkers = 4

	// MaxWorkerMultiplier is the maximum multiple of CPU cores for worker count
	MaxWorkerMultiplier = 4

	// DefaultDebounce is how long watch mode waits for a file to settle
	DefaultDebounce = 500 * time.Millisecond

	// ConfigName is the base name of the optional config file
	ConfigName = "dtaprep"

	// EnvPrefix prefixes every environment variable
	EnvPrefix = "DTAPREP"
)
