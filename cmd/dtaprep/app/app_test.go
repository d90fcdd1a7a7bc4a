package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sonemaro/dtaprep/internal/config"
	"github.com/sonemaro/dtaprep/pkg/logger"
	"github.com/sonemaro/dtaprep/pkg/outdir"
	"github.com/sonemaro/dtaprep/pkg/progress"
	"github.com/sonemaro/dtaprep/pkg/scanner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	header = "\tPt\tT\tVf\tIm\tVu\tSig\tAch\tIERange\tOver\n"
	units  = "\t#\ts\tV vs. Ref.\tA\tV\tV\tV\t#\tbits\n"
	cvRow  = "\t0\t0.05\t0.25\t1.2E-06\t0\t0.25\t0\t11\t...........\n"
	caRow  = "\t12\t1.2\t0.4\t-3.5E-09\t0\t0.4\t0\t9\t...........\n"

	preamble = "EXPLAIN\nTAG\tCV\nCURVE\tTABLE\t1\n"
)

// syncBuffer is written from the watcher goroutine and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// failingFs refuses to open one file
type failingFs struct {
	afero.Fs
	fail string
}

func (f *failingFs) Open(name string) (afero.File, error) {
	if filepath.Base(name) == f.fail {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

func testConfig() *config.Config {
	return &config.Config{
		OutDir:         config.DefaultOutDir,
		Units:          "A",
		Workers:        2,
		IgnorePatterns: []string{},
		Report:         "text",
		NoReport:       true,
		NoProgress:     true,
		NoColor:        true,
		LogFormat:      "json",
		Debounce:       50 * time.Millisecond,
	}
}

func setupFS(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/data/a_CV.DTA":     preamble + header + units + cvRow,
		"/data/b_CA.DTA":     preamble + header + units + caRow,
		"/data/notes.txt":    "not an export",
		"/data/old/c_CV.DTA": preamble + header + cvRow,
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs
}

func newTestApp(t *testing.T, cfg *config.Config, fs afero.Fs, out *bytes.Buffer, confirm outdir.Confirmer) *App {
	t.Helper()

	if confirm == nil {
		confirm = outdir.ConfirmFunc(func(string) (bool, error) {
			t.Fatal("unexpected overwrite prompt")
			return false, nil
		})
	}

	a, err := New(cfg,
		WithFs(fs),
		WithOutput(out),
		WithLogger(logger.Nop()),
		WithProgress(progress.Disabled()),
		WithConfirmer(confirm),
	)
	require.NoError(t, err)
	t.Cleanup(func() { a.Shutdown() })
	return a
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		multiprocess bool
	}{
		{name: "sequential"},
		{name: "multiprocess", multiprocess: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setupFS(t)
			cfg := testConfig()
			cfg.Multiprocess = tt.multiprocess

			var out bytes.Buffer
			a := newTestApp(t, cfg, fs, &out, nil)

			report, err := a.Run(context.Background(), "/data")
			require.NoError(t, err)

			assert.Equal(t,
				"[*] Searching directory\n"+
					"[+] Found 2 files\n"+
					"[*] Setting up output directory\n"+
					"[+] Directory created: /data/output_data\n"+
					"[*] Processing files\n"+
					"[+] Processing complete\n",
				out.String())

			assert.Equal(t,
				"\tVoltage\tCurrent\n\tV\tA\n\t0.25\t1.20000E-006\n",
				readFile(t, fs, "/data/output_data/a_CV.DTACV"))
			assert.Equal(t,
				"\tTime\tCurrent\n\ts\tA\n\t1.2\t-3.50000E-009\n",
				readFile(t, fs, "/data/output_data/b_CA.DTACA"))

			require.Len(t, report.Files, 2)
			assert.Equal(t, "a_CV.DTA", report.Files[0].Name)
			assert.Equal(t, "a_CV.DTACV", report.Files[0].Output)
			assert.Equal(t, "CV", report.Files[0].Kind)
			assert.Equal(t, int64(3), report.Files[0].LinesWritten)
			assert.Equal(t, 2, report.Totals.Converted)
			assert.Zero(t, report.Totals.Failed)
			assert.Equal(t, "/data", report.Directory)
			if tt.multiprocess {
				assert.Equal(t, 2, report.Workers)
			} else {
				assert.Zero(t, report.Workers)
			}
		})
	}
}

func TestRunUnitsAndShift(t *testing.T) {
	fs := setupFS(t)
	cfg := testConfig()
	cfg.Units = "uA"
	shift := 0.5
	cfg.Shift = &shift

	var out bytes.Buffer
	a := newTestApp(t, cfg, fs, &out, nil)

	_, err := a.Run(context.Background(), "/data")
	require.NoError(t, err)

	assert.Equal(t,
		"\tVoltage\tCurrent\n\tV\tuA\n\t7.50000E-001\t1.20000E+000\n",
		readFile(t, fs, "/data/output_data/a_CV.DTACV"))
	// no shift on CA data
	assert.Equal(t,
		"\tTime\tCurrent\n\ts\tuA\n\t1.2\t-3.50000E-003\n",
		readFile(t, fs, "/data/output_data/b_CA.DTACA"))
}

func TestRunExistingOutputDir(t *testing.T) {
	tests := []struct {
		name       string
		answer     bool
		wantErr    error
		wantStale  bool
		wantStatus string
	}{
		{
			name:       "replaced",
			answer:     true,
			wantStale:  false,
			wantStatus: "[+] Processing complete\n",
		},
		{
			name:       "kept",
			answer:     false,
			wantErr:    outdir.ErrDeclined,
			wantStale:  true,
			wantStatus: "[-] Please handle the old directory or use the '--outdir' flag to specify a new output path.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setupFS(t)
			require.NoError(t, afero.WriteFile(fs, "/data/output_data/stale.DTACV", []byte("x"), 0644))

			asked := ""
			confirm := outdir.ConfirmFunc(func(path string) (bool, error) {
				asked = path
				return tt.answer, nil
			})

			var out bytes.Buffer
			a := newTestApp(t, testConfig(), fs, &out, confirm)

			_, err := a.Run(context.Background(), "/data")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "FileExistsError", ErrorKind(err))
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, "/data/output_data", asked)
			assert.Contains(t, out.String(), tt.wantStatus)

			exists, err := afero.Exists(fs, "/data/output_data/stale.DTACV")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStale, exists)
		})
	}
}

func TestRunNotADirectory(t *testing.T) {
	fs := setupFS(t)

	var out bytes.Buffer
	a := newTestApp(t, testConfig(), fs, &out, nil)

	_, err := a.Run(context.Background(), "/data/a_CV.DTA")
	require.Error(t, err)
	assert.ErrorIs(t, err, scanner.ErrNotDirectory)
	assert.Equal(t, "NotADirectoryError", ErrorKind(err))
	assert.Empty(t, out.String(), "nothing is printed before the directory check")
}

func TestRunFileFailure(t *testing.T) {
	fs := &failingFs{Fs: setupFS(t), fail: "a_CV.DTA"}

	for _, multiprocess := range []bool{false, true} {
		t.Run(fmt.Sprintf("multiprocess=%t", multiprocess), func(t *testing.T) {
			require.NoError(t, fs.RemoveAll("/data/output_data"))

			cfg := testConfig()
			cfg.Multiprocess = multiprocess

			var out bytes.Buffer
			a := newTestApp(t, cfg, fs, &out, nil)

			report, err := a.Run(context.Background(), "/data")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFilesFailed)
			assert.ErrorIs(t, err, os.ErrPermission)
			assert.Equal(t, "ConversionError", ErrorKind(err))

			var fileErr *FileError
			require.True(t, errors.As(err, &fileErr))
			assert.Equal(t, "a_CV.DTA", fileErr.Name)

			require.NotNil(t, report)
			assert.Equal(t, 1, report.Totals.Converted)
			assert.Equal(t, 1, report.Totals.Failed)
			assert.True(t, report.Files[0].Failed())

			// the other file is still converted
			exists, err := afero.Exists(fs, "/data/output_data/b_CA.DTACA")
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

func TestRunIgnorePatterns(t *testing.T) {
	fs := setupFS(t)
	cfg := testConfig()
	cfg.IgnorePatterns = []string{"*_CA*"}

	var out bytes.Buffer
	a := newTestApp(t, cfg, fs, &out, nil)

	report, err := a.Run(context.Background(), "/data")
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, "a_CV.DTA", report.Files[0].Name)
	assert.Contains(t, out.String(), "[+] Found 1 files\n")
}

func TestRunDebugSettings(t *testing.T) {
	fs := setupFS(t)
	cfg := testConfig()
	cfg.Debug = true
	shift := -0.2
	cfg.Shift = &shift

	var out bytes.Buffer
	a := newTestApp(t, cfg, fs, &out, nil)

	_, err := a.Run(context.Background(), "/data")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.String(),
		"[D] directory_path: /data\n"+
			"[D] output directory: output_data\n"+
			"[D] units: A\n"+
			"[D] shift: -2.00000E-001\n"+
			"[D] multiprocess: false\n"+
			"[*] Searching directory\n"))
}

func TestRunReport(t *testing.T) {
	t.Run("text to stdout", func(t *testing.T) {
		fs := setupFS(t)
		cfg := testConfig()
		cfg.NoReport = false

		var out bytes.Buffer
		a := newTestApp(t, cfg, fs, &out, nil)

		_, err := a.Run(context.Background(), "/data")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "[+] Processing complete\n/data/output_data/\n")
		assert.Contains(t, out.String(), "├── a_CV.DTACV")
		assert.Contains(t, out.String(), "Files: 2 converted, 0 failed, 2 total")
	})

	t.Run("json to file", func(t *testing.T) {
		fs := setupFS(t)
		cfg := testConfig()
		cfg.NoReport = false
		cfg.Report = "json"
		cfg.ReportFile = "/reports/run.json"
		require.NoError(t, fs.MkdirAll("/reports", 0755))

		var out bytes.Buffer
		a := newTestApp(t, cfg, fs, &out, nil)

		_, err := a.Run(context.Background(), "/data")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "[+] Report written: /reports/run.json\n")

		content := readFile(t, fs, "/reports/run.json")
		assert.Contains(t, content, `"outputDir": "/data/output_data"`)
		assert.Contains(t, content, `"converted": 2`)
	})
}

func TestRunCancelled(t *testing.T) {
	fs := setupFS(t)

	var out bytes.Buffer
	a := newTestApp(t, testConfig(), fs, &out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, "/data")
	require.Error(t, err)
	assert.Equal(t, "Interrupted", ErrorKind(err))
}

func TestNewRejectsUnknownUnit(t *testing.T) {
	cfg := testConfig()
	cfg.Units = "kA"
	_, err := New(cfg, WithLogger(logger.Nop()))
	require.Error(t, err)
	assert.Equal(t, "ValueError", ErrorKind(err))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &scanner.PathError{Op: "open", Path: "/x", Err: scanner.ErrNotDirectory}, want: "NotADirectoryError"},
		{err: &scanner.PathError{Op: "readdir", Path: "/x", Err: os.ErrPermission}, want: "OSError"},
		{err: outdir.ErrDeclined, want: "FileExistsError"},
		{err: &scanner.PatternError{Pattern: "[", Err: filepath.ErrBadPattern}, want: "PatternError"},
		{err: fmt.Errorf("%w: 1 of 2", ErrFilesFailed), want: "ConversionError"},
		{err: fmt.Errorf("%w: %w", ErrInterrupted, context.Canceled), want: "Interrupted"},
		{err: errors.New("boom"), want: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_CV.DTA"), []byte(header+units+cvRow), 0644))

	cfg := testConfig()
	cfg.AssumeYes = true

	out := &syncBuffer{}
	a, err := New(cfg,
		WithFs(afero.NewOsFs()),
		WithOutput(out),
		WithLogger(logger.Nop()),
		WithProgress(progress.Disabled()),
	)
	require.NoError(t, err)
	defer a.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type watchResult struct {
		converted int
		err       error
	}
	done := make(chan watchResult, 1)
	go func() {
		stats, err := a.Watch(ctx, dir)
		done <- watchResult{converted: stats.Conversions, err: err}
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[*] Watching")
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_CA.DTA"), []byte(header+units+caRow), 0644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[+] Converted b_CA.DTA -> b_CA.DTACA")
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 1, res.converted)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not return after cancel")
	}

	data, err := os.ReadFile(filepath.Join(dir, "output_data", "a_CV.DTACV"))
	require.NoError(t, err)
	assert.Equal(t, "\tVoltage\tCurrent\n\tV\tA\n\t0.25\t1.20000E-006\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "output_data", "b_CA.DTACA"))
	require.NoError(t, err)
	assert.Equal(t, "\tTime\tCurrent\n\ts\tA\n\t1.2\t-3.50000E-009\n", string(data))
}
