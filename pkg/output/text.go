package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sonemaro/dtaprep/pkg/logger"
	"github.com/sonemaro/dtaprep/pkg/util"
)

type palette struct {
	dir, ok, failed, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		dir:    color.New(color.FgBlue, color.Bold),
		ok:     color.New(color.FgGreen),
		failed: color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.dir, p.ok, p.failed, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// formatText lists every input file under the output directory, then the totals
func (f *formatter) formatText(report *Report) (string, error) {
	f.log.Debug("Formatting text output")

	colors := newPalette(f.config.WithColors)

	var builder strings.Builder
	builder.WriteString(colors.dir.Sprint(report.OutputDir + "/"))
	builder.WriteString("\n")

	for i, file := range report.Files {
		f.log.WithFields(logger.Fields{
			"file":   file.Name,
			"failed": file.Failed(),
		}).Trace("Formatting report entry")

		if i == len(report.Files)-1 {
			builder.WriteString("└── ")
		} else {
			builder.WriteString("├── ")
		}

		if file.Failed() {
			builder.WriteString(colors.failed.Sprint(file.Name))
			builder.WriteString(colors.failed.Sprintf("  FAILED: %s", file.Error))
		} else {
			builder.WriteString(colors.ok.Sprint(file.Output))
			builder.WriteString(colors.dim.Sprintf("  <- %s, %s lines, %s",
				file.Name,
				util.FormatCount(file.LinesWritten),
				util.FormatSize(file.BytesWritten)))
		}
		builder.WriteString("\n")
	}

	t := report.Totals
	builder.WriteString("\nSummary:\n")
	builder.WriteString(fmt.Sprintf("  Source: %s\n", report.Directory))
	builder.WriteString(fmt.Sprintf("  Files: %d converted, %d failed, %d total\n", t.Converted, t.Failed, t.Files))
	builder.WriteString(fmt.Sprintf("  Lines: %s read, %s written\n",
		util.FormatCount(t.LinesRead), util.FormatCount(t.LinesWritten)))
	builder.WriteString(fmt.Sprintf("  Size: %s read, %s written\n",
		util.FormatSize(t.BytesRead), util.FormatSize(t.BytesWritten)))
	builder.WriteString(fmt.Sprintf("  Units: %s\n", report.Units))
	if report.Shift != nil {
		builder.WriteString(fmt.Sprintf("  Shift: %s V\n", strconv.FormatFloat(*report.Shift, 'g', -1, 64)))
	}
	if report.Workers > 0 {
		builder.WriteString(fmt.Sprintf("  Mode: %s (%d workers)\n", report.Mode(), report.Workers))
	} else {
		builder.WriteString(fmt.Sprintf("  Mode: %s\n", report.Mode()))
	}
	builder.WriteString(fmt.Sprintf("  Duration: %s\n", util.FormatDuration(report.Duration)))

	return builder.String(), nil
}
