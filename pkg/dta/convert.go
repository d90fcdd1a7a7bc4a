package dta

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Stats counts what a conversion read and wrote
type Stats struct {
	LinesRead    int64 `json:"linesRead" yaml:"linesRead"`
	LinesWritten int64 `json:"linesWritten" yaml:"linesWritten"`
	HeaderLines  int64 `json:"headerLines" yaml:"headerLines"`
	DataLines    int64 `json:"dataLines" yaml:"dataLines"`
	BytesRead    int64 `json:"bytesRead" yaml:"bytesRead"`
	BytesWritten int64 `json:"bytesWritten" yaml:"bytesWritten"`
}

// Convert streams r through Line and writes the surviving rows to w.
// CRLF and lone CR terminators are read as LF. The context is checked
// between lines.
func (c *Converter) Convert(ctx context.Context, kind Kind, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunk, readErr := br.ReadString('\n')
		for _, line := range splitLines(chunk) {
			stats.LinesRead++
			stats.BytesRead += int64(len(line))

			out, header, ok := c.transform(kind, line)
			if !ok {
				continue
			}
			n, err := bw.WriteString(out)
			stats.BytesWritten += int64(n)
			if err != nil {
				return stats, fmt.Errorf("writing converted row: %w", err)
			}
			stats.LinesWritten++
			if header {
				stats.HeaderLines++
			} else {
				stats.DataLines++
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("reading input: %w", readErr)
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing output: %w", err)
	}

	return stats, nil
}

// splitLines breaks a chunk ending at LF (or EOF) into LF-terminated lines,
// treating CRLF and a lone CR as line ends. A final piece without a
// terminator is kept as is.
func splitLines(chunk string) []string {
	if chunk == "" {
		return nil
	}
	if !strings.ContainsRune(chunk, '\r') {
		return []string{chunk}
	}

	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	chunk = strings.ReplaceAll(chunk, "\r", "\n")
	lines := strings.SplitAfter(chunk, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
