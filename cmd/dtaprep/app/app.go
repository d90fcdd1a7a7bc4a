/*
Package app wires the dtaprep components together and runs a conversion:
discovery, output directory setup, sequential or pooled conversion, and the
run report.

Usage:

	application, err := app.New(&cfg)
	if err != nil {
	    return err
	}
	defer application.Shutdown()

	report, err := application.Run(ctx, dir)
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sonemaro/dtaprep/internal/config"
	"github.com/sonemaro/dtaprep/pkg/dta"
	"github.com/sonemaro/dtaprep/pkg/logger"
	"github.com/sonemaro/dtaprep/pkg/outdir"
	"github.com/sonemaro/dtaprep/pkg/output"
	"github.com/sonemaro/dtaprep/pkg/progress"
	"github.com/sonemaro/dtaprep/pkg/scanner"
	"github.com/sonemaro/dtaprep/pkg/worker"
	"github.com/spf13/afero"
)

// App represents the main application container
type App struct {
	config *config.Config
	log    logger.Logger
	fs     afero.Fs
	in     io.Reader
	out    io.Writer

	converter *dta.Converter
	scanner   scanner.Scanner
	formatter output.Formatter
	progress  progress.Progress
	confirm   outdir.Confirmer

	mu   sync.Mutex
	pool worker.Pool
}

// Option customises an App, mostly for tests
type Option func(*App)

// WithFs replaces the OS filesystem
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithInput reads overwrite answers from r instead of stdin
func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = r }
}

// WithOutput sends status lines and the report to w instead of stdout
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithLogger replaces the zap logger built from the config
func WithLogger(log logger.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithConfirmer replaces the interactive overwrite prompt
func WithConfirmer(c outdir.Confirmer) Option {
	return func(a *App) { a.confirm = c }
}

// WithProgress replaces the terminal progress display
func WithProgress(p progress.Progress) Option {
	return func(a *App) { a.progress = p }
}

// New creates a new application instance
func New(cfg *config.Config, opts ...Option) (*App, error) {
	unit, err := dta.ParseUnit(cfg.Units)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		fs:     afero.NewOsFs(),
		in:     os.Stdin,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.log == nil {
		a.log = logger.NewLogger(logger.Config{
			Verbosity: cfg.Verbose,
			Format:    logger.Format(cfg.LogFormat),
			Output:    os.Stderr,
		})
	}

	a.converter = dta.NewConverter(dta.Options{Unit: unit, Shift: cfg.Shift})
	a.scanner = scanner.NewScanner(scanner.Config{}, a.fs, a.log)

	format, err := output.ParseFormat(cfg.Report)
	if err != nil {
		return nil, err
	}
	a.formatter = output.NewFormatter(output.Config{
		Format:     format,
		WithColors: !cfg.NoColor && cfg.ReportFile == "" && format == output.FormatText,
	}, a.log)

	if a.progress == nil {
		a.progress = a.newProgress()
	}

	if a.confirm == nil {
		if cfg.AssumeYes {
			a.confirm = outdir.AssumeYes
		} else {
			prompt := outdir.NewStdPrompt()
			prompt.In = a.in
			prompt.Out = a.out
			if f, ok := a.in.(*os.File); !ok || !outdir.Interactive(f) {
				a.log.Debug("Input is not a terminal, the overwrite prompt reads piped input")
			}
			a.confirm = prompt
		}
	}

	a.log.WithFields(logger.Fields{
		"units":        cfg.Units,
		"shift":        cfg.Shift != nil,
		"multiprocess": cfg.Multiprocess,
		"workers":      cfg.Workers,
		"verbose":      cfg.Verbose,
	}).Info("Application initialized")
	a.log.WithFields(logger.Fields{"config": cfg.String()}).Debug("Effective configuration")

	return a, nil
}

func (a *App) newProgress() progress.Progress {
	if a.config.NoProgress {
		return progress.Disabled()
	}

	style := progress.StyleLine
	if a.config.Multiprocess {
		style = progress.StyleBar
	}
	return progress.New(progress.Config{
		Style:             style,
		ShowStats:         true,
		NoColor:           a.config.NoColor,
		HideAfterComplete: true,
	}, a.log)
}

// Run converts every Gamry export directly inside dir
func (a *App) Run(ctx context.Context, dir string) (report *output.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic")
			report, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	started := time.Now()
	a.printSettings(dir)

	path, outPath, files, err := a.prepare(ctx, dir)
	if err != nil {
		return nil, err
	}

	a.status("[*] Processing files")

	report = &output.Report{
		Directory: path,
		OutputDir: outPath,
		Units:     a.converter.Unit().String(),
		Shift:     a.config.Shift,
		Started:   started,
	}

	var errs []error
	if a.config.Multiprocess {
		report.Workers = a.config.Workers
		report.Files, errs = a.processPool(ctx, files, outPath)
	} else {
		report.Files, errs = a.processSequential(ctx, files, outPath)
	}
	report.Duration = time.Since(started)
	report.Summarize()

	if ctx.Err() != nil {
		return report, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}

	a.status("[+] Processing complete")

	if err := a.writeReport(report); err != nil {
		return report, err
	}

	a.log.WithFields(logger.Fields{
		"files":    report.Totals.Files,
		"failed":   report.Totals.Failed,
		"written":  report.Totals.BytesWritten,
		"duration": report.Duration,
	}).Info("Conversion completed")

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %d of %d: %w",
			ErrFilesFailed, len(errs), report.Totals.Files, errors.Join(errs...))
	}
	return report, nil
}

// prepare finds the inputs and sets up the output directory
func (a *App) prepare(ctx context.Context, dir string) (string, string, []scanner.File, error) {
	path, err := filepath.Abs(dir)
	if err != nil {
		return "", "", nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	info, err := a.fs.Stat(path)
	if err != nil || !info.IsDir() {
		return "", "", nil, &scanner.PathError{Op: "open", Path: path, Err: scanner.ErrNotDirectory}
	}

	a.status("[*] Searching directory")
	result, err := a.scanner.Scan(ctx, path, a.config.IgnorePatterns)
	if err != nil {
		return "", "", nil, err
	}
	for name, scanErr := range result.Errors {
		a.log.WithFields(logger.Fields{
			"file":  name,
			"error": scanErr,
		}).Warn("Skipped unreadable entry")
	}
	a.log.WithFields(logger.Fields{
		"files":    len(result.Files),
		"bytes":    result.TotalSize(),
		"duration": result.Stats.Duration,
	}).Info("Directory scanned")
	a.status("[+] Found %d files", len(result.Files))

	a.status("[*] Setting up output directory")
	outPath := filepath.Join(path, a.config.OutDir)
	state, err := outdir.Prepare(a.fs, outPath, a.confirm, a.log)
	if err != nil {
		if errors.Is(err, outdir.ErrDeclined) {
			a.status("[-] Please handle the old directory or use the '--outdir' flag to specify a new output path.")
		}
		return "", "", nil, err
	}
	a.log.WithFields(logger.Fields{
		"path":  outPath,
		"state": state.String(),
	}).Debug("Output directory ready")
	a.status("[+] Directory created: %s", outPath)

	return path, outPath, result.Files, nil
}

func (a *App) processSequential(ctx context.Context, files []scanner.File, outPath string) ([]output.FileReport, []error) {
	reports := make([]output.FileReport, 0, len(files))
	var errs []error

	a.progress.Start("")
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}

		a.progress.Update(progress.Status{
			Current:        int64(i),
			Total:          int64(len(files)),
			CurrentItem:    f.Name,
			ItemsProcessed: int64(i),
		})

		fr, err := a.convertFile(ctx, f, outPath)
		reports = append(reports, fr)
		if err != nil {
			errs = append(errs, err)
		}

		a.progress.Clear()
	}
	a.progress.Complete("")

	return reports, errs
}

// outcome travels through the pool as Result.Data
type outcome struct {
	report output.FileReport
	err    error
}

func (a *App) processPool(ctx context.Context, files []scanner.File, outPath string) ([]output.FileReport, []error) {
	total := int64(len(files))
	var done int64

	pool, err := worker.NewPool(worker.Config{
		Workers:   a.config.Workers,
		RateLimit: a.config.RateLimit,
		OnResult: func(r worker.Result) {
			done++
			a.progress.Update(progress.Status{
				Current:        done,
				Total:          total,
				CurrentItem:    r.Name,
				ItemsProcessed: done,
			})
		},
	})
	if err != nil {
		return nil, []error{err}
	}

	a.mu.Lock()
	a.pool = pool
	a.mu.Unlock()

	if err := pool.Start(ctx); err != nil {
		return nil, []error{err}
	}

	a.progress.Start("")

	for i, f := range files {
		f := f
		err := pool.Submit(worker.Task{
			ID:   i,
			Name: f.Name,
			Execute: func(ctx context.Context) (worker.Result, error) {
				fr, err := a.convertFile(ctx, f, outPath)
				return worker.Result{Data: outcome{report: fr, err: err}}, err
			},
		})
		if err != nil {
			a.log.WithFields(logger.Fields{
				"file":  f.Name,
				"error": err,
			}).Warn("Could not queue file")
			break
		}
	}

	results, waitErr := pool.Wait()
	a.progress.Complete("")

	if waitErr != nil {
		a.log.WithFields(logger.Fields{"error": waitErr}).Warn("Worker pool interrupted")
	}

	stats := pool.GetStats()
	a.log.WithFields(logger.Fields{
		"completed": stats.CompletedTasks,
		"failed":    stats.FailedTasks,
		"uptime":    stats.Uptime,
	}).Debug("Worker pool finished")

	reports := make([]output.FileReport, 0, len(results))
	var errs []error
	for _, r := range results {
		if o, ok := r.Data.(outcome); ok {
			reports = append(reports, o.report)
			if o.err != nil {
				errs = append(errs, o.err)
			}
			continue
		}

		// never ran, or panicked
		fileErr := &FileError{Name: r.Name, Err: r.Err}
		reports = append(reports, output.FileReport{Name: r.Name, Error: fileErr.Error()})
		errs = append(errs, fileErr)
	}

	return reports, errs
}

// convertFile converts one file and describes the outcome
func (a *App) convertFile(ctx context.Context, f scanner.File, outPath string) (output.FileReport, error) {
	start := time.Now()
	res, err := a.converter.ConvertFile(ctx, a.fs, f.Path, outPath)

	fr := output.FileReport{
		Name:         f.Name,
		Output:       filepath.Base(res.Output),
		Kind:         res.Kind.String(),
		Size:         f.Size,
		LinesRead:    res.Stats.LinesRead,
		LinesWritten: res.Stats.LinesWritten,
		BytesWritten: res.Stats.BytesWritten,
		Duration:     time.Since(start),
	}

	if err != nil {
		fileErr := &FileError{Name: f.Name, Err: err}
		fr.Error = fileErr.Error()
		a.log.WithFields(logger.Fields{
			"file":  f.Name,
			"error": err,
		}).Error("Conversion failed")
		return fr, fileErr
	}

	a.log.WithFields(logger.Fields{
		"file":    f.Name,
		"output":  fr.Output,
		"kind":    fr.Kind,
		"lines":   fr.LinesWritten,
		"elapsed": fr.Duration,
	}).Debug("File converted")

	return fr, nil
}

func (a *App) writeReport(report *output.Report) error {
	if a.config.NoReport {
		return nil
	}

	text, err := a.formatter.Format(report)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}

	if a.config.ReportFile != "" {
		if err := afero.WriteFile(a.fs, a.config.ReportFile, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		a.status("[+] Report written: %s", a.config.ReportFile)
		return nil
	}

	fmt.Fprint(a.out, text)
	return nil
}

// printSettings prints the effective settings as "[D] key: value" lines
func (a *App) printSettings(dir string) {
	if !a.config.Debug {
		return
	}

	shift := "None"
	if v, ok := a.converter.Shift(); ok {
		shift = dta.SciNotation(v)
	}

	a.status("[D] directory_path: %s", dir)
	a.status("[D] output directory: %s", a.config.OutDir)
	a.status("[D] units: %s", a.config.Units)
	a.status("[D] shift: %s", shift)
	a.status("[D] multiprocess: %t", a.config.Multiprocess)
	if a.config.Multiprocess {
		a.status("[D] workers: %d", a.config.Workers)
		a.status("[D] rate limit: %d", a.config.RateLimit)
	}
	if len(a.config.IgnorePatterns) > 0 {
		a.status("[D] ignore: %v", a.config.IgnorePatterns)
	}
	if a.config.ConfigFile != "" {
		a.status("[D] config file: %s", a.config.ConfigFile)
	}
}

func (a *App) status(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Shutdown stops the progress display and any running pool
func (a *App) Shutdown() error {
	a.log.Debug("Initiating shutdown")

	a.progress.Stop()

	a.mu.Lock()
	pool := a.pool
	a.mu.Unlock()

	if pool != nil {
		if err := pool.Stop(); err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
			}).Error("Failed to stop worker pool")
			return err
		}
	}

	a.log.Debug("Shutdown complete")
	return nil
}
