package output

import (
	"github.com/sonemaro/dtaprep/pkg/logger"
)

// Totals sums the file reports of a run
type Totals struct {
	Files        int   `json:"files" yaml:"files"`
	Converted    int   `json:"converted" yaml:"converted"`
	Failed       int   `json:"failed" yaml:"failed"`
	BytesRead    int64 `json:"bytesRead" yaml:"bytesRead"`
	BytesWritten int64 `json:"bytesWritten" yaml:"bytesWritten"`
	LinesRead    int64 `json:"linesRead" yaml:"linesRead"`
	LinesWritten int64 `json:"linesWritten" yaml:"linesWritten"`
}

// Summarize fills r.Totals from r.Files
func (r *Report) Summarize() Totals {
	var totals Totals
	for _, f := range r.Files {
		totals.Files++
		if f.Failed() {
			totals.Failed++
			continue
		}
		totals.Converted++
		totals.BytesRead += f.Size
		totals.BytesWritten += f.BytesWritten
		totals.LinesRead += f.LinesRead
		totals.LinesWritten += f.LinesWritten
	}
	r.Totals = totals
	return totals
}

func (f *formatter) logTotals(totals Totals) {
	f.log.WithFields(logger.Fields{
		"files":     totals.Files,
		"converted": totals.Converted,
		"failed":    totals.Failed,
		"written":   totals.BytesWritten,
	}).Debug("Report totals")
}
