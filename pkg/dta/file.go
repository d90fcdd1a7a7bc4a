package dta

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileResult describes one converted file
type FileResult struct {
	Source string
	Output string
	Kind   Kind
	Stats  Stats
}

// ConvertFile converts src into dstDir/OutputName(base(src)) on fs.
// A partially written output is left in place when conversion fails.
func (c *Converter) ConvertFile(ctx context.Context, fs afero.Fs, src, dstDir string) (FileResult, error) {
	name := filepath.Base(src)
	res := FileResult{
		Source: src,
		Output: filepath.Join(dstDir, OutputName(name)),
		Kind:   DetectKind(name),
	}

	in, err := fs.Open(src)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.Create(res.Output)
	if err != nil {
		return res, fmt.Errorf("creating %s: %w", res.Output, err)
	}

	stats, convErr := c.Convert(ctx, res.Kind, in, out)
	res.Stats = stats

	if err := out.Close(); err != nil && convErr == nil {
		convErr = fmt.Errorf("closing %s: %w", res.Output, err)
	}
	if convErr != nil {
		return res, fmt.Errorf("converting %s: %w", name, convErr)
	}

	return res, nil
}
