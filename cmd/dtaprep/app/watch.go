package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/sonemaro/dtaprep/pkg/dta"
	"github.com/sonemaro/dtaprep/pkg/logger"
	"github.com/sonemaro/dtaprep/pkg/scanner"
	"github.com/sonemaro/dtaprep/pkg/watch"
)

// Watch converts the files already in dir, then keeps converting new and
// rewritten exports until ctx is cancelled. Failed conversions are reported
// and do not end the watch.
func (a *App) Watch(ctx context.Context, dir string) (watch.Stats, error) {
	report, err := a.Run(ctx, dir)
	if err != nil && !errors.Is(err, ErrFilesFailed) {
		return watch.Stats{}, err
	}
	if err != nil {
		a.status("[-] %s: %v", ErrorKind(err), err)
	}

	outPath := report.OutputDir
	w, err := watch.New(watch.Config{
		Dir:      report.Directory,
		Debounce: a.config.Debounce,
	}, func(name string) bool {
		return a.scanner.Matches(name, a.config.IgnorePatterns)
	}, func(ctx context.Context, path string) error {
		return a.convertWatched(ctx, path, outPath)
	}, a.log)
	if err != nil {
		return watch.Stats{}, err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return watch.Stats{}, err
	}
	a.status("[*] Watching %s for new files (Ctrl+C to stop)", report.Directory)

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	w.Stop()

	stats := w.Stats()
	a.status("[+] Watch stopped: %d converted, %d failed", stats.Conversions, stats.Failures)
	return stats, nil
}

func (a *App) convertWatched(ctx context.Context, path, outPath string) error {
	info, err := a.fs.Stat(path)
	if err != nil {
		// removed before it settled
		a.log.WithFields(logger.Fields{"path": path}).Debug("Watched file vanished")
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	name := filepath.Base(path)
	fr, err := a.convertFile(ctx, scanner.File{
		Name:    name,
		Path:    path,
		Size:    info.Size(),
		Kind:    dta.DetectKind(name),
		ModTime: info.ModTime(),
	}, outPath)
	if err != nil {
		a.status("[-] %s: %s", name, fr.Error)
		return err
	}

	a.status("[+] Converted %s -> %s", name, fr.Output)
	return nil
}
