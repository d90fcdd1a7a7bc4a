package app

import (
	"context"
	"errors"

	"github.com/sonemaro/dtaprep/pkg/dta"
	"github.com/sonemaro/dtaprep/pkg/outdir"
	"github.com/sonemaro/dtaprep/pkg/scanner"
)

// ErrFilesFailed is returned by Run when at least one file could not be converted
var ErrFilesFailed = errors.New("some files failed to convert")

// ErrInterrupted is returned when the run was cancelled part way
var ErrInterrupted = errors.New("interrupted")

// FileError ties a conversion failure to its input file
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ErrorKind names the class of err for the "[-] <kind>: <message>" line
func ErrorKind(err error) string {
	var pathErr *scanner.PathError
	var patternErr *scanner.PatternError
	var fileErr *FileError

	switch {
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return "Interrupted"
	case errors.Is(err, scanner.ErrNotDirectory):
		return "NotADirectoryError"
	case errors.Is(err, outdir.ErrDeclined):
		return "FileExistsError"
	case errors.Is(err, outdir.ErrNotDirectory):
		return "FileExistsError"
	case errors.Is(err, dta.ErrUnknownUnit):
		return "ValueError"
	case errors.As(err, &patternErr):
		return "PatternError"
	case errors.Is(err, ErrFilesFailed), errors.As(err, &fileErr):
		return "ConversionError"
	case errors.As(err, &pathErr):
		return "OSError"
	default:
		return "Error"
	}
}
