package progress

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sonemaro/dtaprep/pkg/util"
)

type renderer interface {
	render(Status, string, Statistics) string
}

// lineRenderer reproduces the per-file status line of the sequential mode
type lineRenderer struct{}

func (r *lineRenderer) render(status Status, _ string, _ Statistics) string {
	if status.CurrentItem == "" {
		return ""
	}
	return fmt.Sprintf("[*] Current file (%d/%d): %s", status.Current, status.Total, status.CurrentItem)
}

type barRenderer struct {
	width     int
	showStats bool
	fill      *color.Color
}

func newBarRenderer(width int, noColor, showStats bool) *barRenderer {
	fill := color.New(color.FgGreen)
	if noColor {
		fill.DisableColor()
	} else {
		fill.EnableColor()
	}
	return &barRenderer{width: width, showStats: showStats, fill: fill}
}

func (r *barRenderer) render(status Status, message string, stats Statistics) string {
	var output strings.Builder

	if message != "" {
		output.WriteString(message)
		output.WriteString(" ")
	}

	var fraction float64
	if status.Total > 0 {
		fraction = float64(status.Current) / float64(status.Total)
	}
	if fraction > 1 {
		fraction = 1
	}
	counter := fmt.Sprintf(" %3.0f%% %d/%d", fraction*100, status.Current, status.Total)

	barWidth := r.width - output.Len() - len(counter) - 2
	if r.showStats {
		barWidth -= 24
	}
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * fraction)
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}
	output.WriteString("[")
	output.WriteString(r.fill.Sprint(bar))
	output.WriteString("]")
	output.WriteString(counter)

	if r.showStats {
		output.WriteString(fmt.Sprintf(" | %.1f files/s | ETA %s",
			stats.ProcessingSpeed,
			util.FormatDuration(stats.RemainingTime)))
	}

	return output.String()
}
