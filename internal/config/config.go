package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sonemaro/dtaprep/pkg/dta"
	"github.com/sonemaro/dtaprep/pkg/scanner"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Shift is added to CV voltages; nil leaves them untouched
	Shift *float64

	// OutDir is the output directory, relative to the input directory
	OutDir string

	// Units is the current unit: A, mA, uA or nA
	Units string

	// Multiprocess converts files through the worker pool
	Multiprocess bool

	// Workers is the pool size used with Multiprocess
	Workers int

	// RateLimit is the maximum number of files started per second (0 for unlimited)
	RateLimit int

	// IgnorePatterns are glob patterns for input files to skip
	IgnorePatterns []string

	// AssumeYes replaces an existing output directory without asking
	AssumeYes bool

	// Report is the run report format: text, json or yaml
	Report string

	// ReportFile receives the report instead of stdout
	ReportFile string

	// NoReport suppresses the run report
	NoReport bool

	// NoProgress disables progress reporting
	NoProgress bool

	// NoColor disables colored output
	NoColor bool

	// Debug prints the effective settings and raises verbosity to debug
	Debug bool

	// Verbose sets the verbosity level
	Verbose int

	// LogFormat is json or console
	LogFormat string

	// Debounce is the settle time for watch mode
	Debounce time.Duration

	// ConfigFile is the config file that was read, if any
	ConfigFile string
}

// Options controls where Load looks for settings besides the environment
type Options struct {
	// ConfigFile is an explicit config file (--config). It must exist.
	ConfigFile string

	// SearchPaths replaces the default config file locations
	// (the working directory and ~/.config/dtaprep)
	SearchPaths []string

	// Flags are bound on top of file and environment values
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"shift":        "shift",
	"outdir":       "outdir",
	"units":        "units",
	"multiprocess": "multiprocess",
	"workers":      "workers",
	"rate-limit":   "rate_limit",
	"ignore":       "ignore",
	"yes":          "yes",
	"report":       "report",
	"report-file":  "report_file",
	"no-report":    "no_report",
	"no-progress":  "no_progress",
	"no-color":     "no_color",
	"debug":        "debug",
	"verbose":      "verbose",
	"log-format":   "log_format",
	"debounce":     "debounce",
}

// Load reads configuration from the environment and the default config file
func Load() (Config, error) {
	return LoadWith(Options{})
}

// LoadWith applies defaults, then the config file, then DTAPREP_* variables,
// then any changed flags, and validates the result.
func LoadWith(opts Options) (Config, error) {
	v := viper.New()

	v.SetDefault("outdir", DefaultOutDir)
	v.SetDefault("units", DefaultUnits)
	v.SetDefault("multiprocess", false)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("yes", false)
	v.SetDefault("report", string(ReportFormatText))
	v.SetDefault("no_report", false)
	v.SetDefault("no_progress", false)
	v.SetDefault("no_color", false)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", 0)
	v.SetDefault("log_format", "json")
	v.SetDefault("debounce", DefaultDebounce)

	if err := readConfigFile(v, opts); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, key := range flagKeys {
		v.BindEnv(key)
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Config{
		OutDir:       v.GetString("outdir"),
		Units:        v.GetString("units"),
		Multiprocess: v.GetBool("multiprocess"),
		Workers:      v.GetInt("workers"),
		RateLimit:    v.GetInt("rate_limit"),
		AssumeYes:    v.GetBool("yes"),
		Report:       strings.ToLower(v.GetString("report")),
		ReportFile:   v.GetString("report_file"),
		NoReport:     v.GetBool("no_report"),
		NoProgress:   v.GetBool("no_progress"),
		NoColor:      v.GetBool("no_color"),
		Debug:        v.GetBool("debug"),
		Verbose:      parseVerbose(v.GetString("verbose")),
		LogFormat:    strings.ToLower(v.GetString("log_format")),
		Debounce:     v.GetDuration("debounce"),
		ConfigFile:   v.ConfigFileUsed(),
	}

	if v.IsSet("shift") {
		shift, err := parseShift(v.GetString("shift"))
		if err != nil {
			return Config{}, err
		}
		cfg.Shift = &shift
	}

	// Process ignore patterns; env values arrive as one comma-separated string
	cfg.IgnorePatterns = []string{}
	for _, raw := range v.GetStringSlice("ignore") {
		for _, p := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.IgnorePatterns = append(cfg.IgnorePatterns, trimmed)
			}
		}
	}

	if cfg.Debug && cfg.Verbose < 2 {
		cfg.Verbose = 2
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")

	paths := opts.SearchPaths
	if paths == nil {
		paths = []string{"."}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".config", ConfigName))
		}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// parseVerbose accepts a count ("2") or a run of v's ("vv")
func parseVerbose(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Trim(s, "v") == "" {
		return len(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseShift(s string) (float64, error) {
	shift, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(shift) || math.IsInf(shift, 0) {
		return 0, fmt.Errorf("invalid shift %q: must be a number in volts", s)
	}
	return shift, nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers count must be positive")
	}
	maxWorkers := runtime.NumCPU() * MaxWorkerMultiplier
	if maxWorkers < DefaultWorkers {
		maxWorkers = DefaultWorkers
	}
	if c.Workers > maxWorkers {
		return fmt.Errorf("workers count cannot exceed system CPU count * 4")
	}

	if _, err := dta.ParseUnit(c.Units); err != nil {
		return err
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	switch ReportFormat(c.Report) {
	case ReportFormatText, ReportFormatJSON, ReportFormatYAML:
	default:
		return fmt.Errorf("invalid report format: must be one of [text json yaml]")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: must be one of [json console]")
	}

	if strings.TrimSpace(c.OutDir) == "" {
		return fmt.Errorf("output directory name must not be empty")
	}

	if c.Debounce < 0 {
		return fmt.Errorf("debounce must be non-negative")
	}

	if err := scanner.ValidatePatterns(c.IgnorePatterns); err != nil {
		return err
	}

	return nil
}

// Settings lists the effective settings as key/value pairs, in a stable
// order, for debug logging
func (c Config) Settings() [][2]string {
	shift := "none"
	if c.Shift != nil {
		shift = fmt.Sprint(*c.Shift)
	}
	configFile := c.ConfigFile
	if configFile == "" {
		configFile = "none"
	}

	return [][2]string{
		{"shift", shift},
		{"outdir", c.OutDir},
		{"units", c.Units},
		{"multiprocess", fmt.Sprint(c.Multiprocess)},
		{"workers", fmt.Sprint(c.Workers)},
		{"rate_limit", fmt.Sprint(c.RateLimit)},
		{"ignore", fmt.Sprint(c.IgnorePatterns)},
		{"report", c.Report},
		{"config", configFile},
	}
}

// String returns a string representation of the configuration
func (c Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	for i, kv := range c.Settings() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(kv[0] + ": " + kv[1])
	}
	b.WriteString("}")
	return b.String()
}
