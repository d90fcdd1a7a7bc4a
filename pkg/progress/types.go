package progress

import "time"

// Style represents the type of progress visualization
type Style string

const (
	// StyleLine prints "[*] Current file (i/N): name" for the file being converted
	StyleLine Style = "line"

	// StyleBar shows a progress bar with percentage and throughput
	StyleBar Style = "bar"
)

// Config holds the configuration for progress visualization
type Config struct {
	// Style defines how progress should be displayed
	Style Style

	// Width is the maximum width for the progress bar (0 = auto-detect)
	Width int

	// ShowStats adds the files/s and ETA block to the bar
	ShowStats bool

	// NoColor disables colored output
	NoColor bool

	// RefreshRate defines how often the bar is redrawn
	RefreshRate time.Duration

	// HideAfterComplete removes the bar after completion
	HideAfterComplete bool
}

// Status represents the current progress state
type Status struct {
	// Current is the index of the file being processed, or the number of
	// files done for the bar
	Current int64

	// Total number of files
	Total int64

	// CurrentItem is the file name being processed
	CurrentItem string

	// BytesRead so far
	BytesRead int64

	// ItemsProcessed counts finished files
	ItemsProcessed int64
}

// Statistics provides detailed progress information
type Statistics struct {
	StartTime       time.Time
	ElapsedTime     time.Duration
	RemainingTime   time.Duration
	ProcessingSpeed float64 // files per second

	ProgressPercentage float64
	BytesProcessed     int64
	ItemsProcessed     int64
}

// Progress defines the interface for progress visualization
type Progress interface {
	// Start begins progress visualization
	Start(message string)

	// Update updates the progress status
	Update(status Status)

	// Clear erases the current line
	Clear()

	// Complete marks the operation as successfully completed
	Complete(message string)

	// Stop stops progress visualization
	Stop()

	// IsSupportedTerminal checks if the writer is a terminal
	IsSupportedTerminal() bool
}
