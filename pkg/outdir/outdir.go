// Package outdir creates the directory converted files are written to and
// guards an existing one behind a confirmation.
package outdir

import (
	"errors"
	"fmt"
	"os"

	"github.com/sonemaro/dtaprep/pkg/logger"
	"github.com/spf13/afero"
)

// ErrDeclined is returned when an existing output directory may not be replaced
var ErrDeclined = errors.New("output directory exists and was not replaced")

// ErrNotDirectory is returned when the output path exists as something else
var ErrNotDirectory = errors.New("output path exists and is not a directory")

// Outcome tells how Prepare left the directory
type Outcome int

const (
	// Created means the directory did not exist before
	Created Outcome = iota
	// Replaced means an existing directory was removed and recreated
	Replaced
)

func (o Outcome) String() string {
	if o == Replaced {
		return "replaced"
	}
	return "created"
}

// Confirmer decides whether an existing directory may be deleted
type Confirmer interface {
	Confirm(path string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(path string) (bool, error)

func (f ConfirmFunc) Confirm(path string) (bool, error) {
	return f(path)
}

// AssumeYes confirms every replacement without asking
var AssumeYes Confirmer = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Prepare creates path (its parent must exist). An existing directory is
// removed and recreated only when confirm agrees; otherwise ErrDeclined.
func Prepare(fs afero.Fs, path string, confirm Confirmer, log logger.Logger) (Outcome, error) {
	err := fs.Mkdir(path, 0755)
	if err == nil {
		log.WithFields(logger.Fields{"path": path}).Info("Output directory created")
		return Created, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return Created, fmt.Errorf("creating output directory: %w", err)
	}

	info, statErr := fs.Stat(path)
	if statErr != nil {
		return Created, fmt.Errorf("inspecting output directory: %w", statErr)
	}
	if !info.IsDir() {
		return Created, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}

	ok, err := confirm.Confirm(path)
	if err != nil {
		return Created, fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		log.WithFields(logger.Fields{"path": path}).Warn("Existing output directory kept")
		return Created, ErrDeclined
	}

	log.WithFields(logger.Fields{"path": path}).Info("Deleting old output directory")
	if err := fs.RemoveAll(path); err != nil {
		return Created, fmt.Errorf("removing old output directory: %w", err)
	}
	if err := fs.Mkdir(path, 0755); err != nil {
		return Created, fmt.Errorf("recreating output directory: %w", err)
	}

	return Replaced, nil
}
