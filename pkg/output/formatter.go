/*
Package output renders the report of a conversion run as a text tree, JSON
or YAML.

Basic usage:

	formatter := output.NewFormatter(output.Config{
		Format:     output.FormatText,
		WithColors: true,
	}, log)

	text, err := formatter.Format(report)
*/
package output

import (
	"fmt"
	"strings"

	"github.com/sonemaro/dtaprep/pkg/logger"
)

// Format represents the output format type
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted report formats
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// ParseFormat accepts a format name in any case
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Config holds formatter configuration
type Config struct {
	Format     Format
	WithColors bool
}

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(*Report) (string, error)
}

type formatter struct {
	config Config
	log    logger.Logger
}

// NewFormatter creates a new formatter instance
func NewFormatter(config Config, log logger.Logger) Formatter {
	return &formatter{
		config: config,
		log:    log,
	}
}

func (f *formatter) Format(report *Report) (string, error) {
	if report == nil {
		msg := "nil report provided for formatting"
		f.log.Error(msg)
		return "", fmt.Errorf("%s", msg)
	}

	f.log.WithFields(logger.Fields{
		"format":     f.config.Format,
		"withColors": f.config.WithColors,
		"files":      len(report.Files),
	}).Debug("Starting format operation")

	f.logTotals(report.Summarize())

	switch f.config.Format {
	case FormatText, "":
		return f.formatText(report)
	case FormatJSON:
		return f.formatJSON(report)
	case FormatYAML:
		return f.formatYAML(report)
	default:
		msg := fmt.Sprintf("unsupported format: %s", f.config.Format)
		f.log.Error(msg)
		return "", fmt.Errorf("%s", msg)
	}
}
