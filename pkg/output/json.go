package output

import (
	"encoding/json"
	"time"

	"github.com/sonemaro/dtaprep/pkg/logger"
)

// fileDocument is a FileReport with durations as strings
type fileDocument struct {
	Name         string `json:"name" yaml:"name"`
	Output       string `json:"output,omitempty" yaml:"output,omitempty"`
	Kind         string `json:"kind" yaml:"kind"`
	Size         int64  `json:"size" yaml:"size"`
	LinesRead    int64  `json:"linesRead" yaml:"linesRead"`
	LinesWritten int64  `json:"linesWritten" yaml:"linesWritten"`
	BytesWritten int64  `json:"bytesWritten" yaml:"bytesWritten"`
	Duration     string `json:"duration" yaml:"duration"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// document is the shape shared by the JSON and YAML reports
type document struct {
	Directory string         `json:"directory" yaml:"directory"`
	OutputDir string         `json:"outputDir" yaml:"outputDir"`
	Units     string         `json:"units" yaml:"units"`
	Shift     *float64       `json:"shift,omitempty" yaml:"shift,omitempty"`
	Mode      string         `json:"mode" yaml:"mode"`
	Workers   int            `json:"workers,omitempty" yaml:"workers,omitempty"`
	Started   time.Time      `json:"started" yaml:"started"`
	Duration  string         `json:"duration" yaml:"duration"`
	Files     []fileDocument `json:"files" yaml:"files"`
	Totals    Totals         `json:"totals" yaml:"totals"`
}

func (f *formatter) toDocument(report *Report) *document {
	doc := &document{
		Directory: report.Directory,
		OutputDir: report.OutputDir,
		Units:     report.Units,
		Shift:     report.Shift,
		Mode:      report.Mode(),
		Workers:   report.Workers,
		Started:   report.Started,
		Duration:  report.Duration.String(),
		Files:     make([]fileDocument, len(report.Files)),
		Totals:    report.Totals,
	}

	for i, file := range report.Files {
		f.log.WithFields(logger.Fields{
			"file": file.Name,
		}).Trace("Converting report entry")

		doc.Files[i] = fileDocument{
			Name:         file.Name,
			Output:       file.Output,
			Kind:         file.Kind,
			Size:         file.Size,
			LinesRead:    file.LinesRead,
			LinesWritten: file.LinesWritten,
			BytesWritten: file.BytesWritten,
			Duration:     file.Duration.String(),
			Error:        file.Error,
		}
	}

	return doc
}

func (f *formatter) formatJSON(report *Report) (string, error) {
	f.log.Debug("Formatting JSON output")

	bytes, err := json.MarshalIndent(f.toDocument(report), "", "  ")
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal JSON")
		return "", err
	}

	return string(bytes) + "\n", nil
}
