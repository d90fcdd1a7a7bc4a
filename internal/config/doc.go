// Package config provides configuration management for dtaprep.
// Settings come from four layers, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML config file (--config, or dtaprep.yaml in the working
//     directory or ~/.config/dtaprep/)
//  3. DTAPREP_* environment variables
//  4. command-line flags that were set explicitly
//
// # Loading
//
//	cfg, err := config.LoadWith(config.Options{
//	    ConfigFile: cfgFile,
//	    Flags:      cmd.Flags(),
//	})
//	if err != nil {
//	    return err
//	}
//
// # Environment Variables
//
//	DTAPREP_SHIFT         Voltage shift added to CV data (volts)
//	DTAPREP_OUTDIR        Output directory name (default: output_data)
//	DTAPREP_UNITS         Current unit: A|mA|uA|nA (default: A)
//	DTAPREP_MULTIPROCESS  Convert through the worker pool (true/false)
//	DTAPREP_WORKERS       Pool size (default: 4)
//	DTAPREP_RATE_LIMIT    Files started per second in the pool (0 for unlimited)
//	DTAPREP_IGNORE        Comma-separated ignore patterns
//	DTAPREP_YES           Replace an existing output directory without asking
//	DTAPREP_REPORT        Report format: text|json|yaml
//	DTAPREP_REPORT_FILE   Write the report to this file
//	DTAPREP_NO_REPORT     Suppress the report
//	DTAPREP_NO_PROGRESS   Disable progress reporting
//	DTAPREP_NO_COLOR      Disable colored output
//	DTAPREP_DEBUG         Print effective settings, debug logging
//	DTAPREP_VERBOSE       Verbosity level (a number or a run of 'v's)
//	DTAPREP_LOG_FORMAT    json|console
//	DTAPREP_DEBOUNCE      Watch mode settle time (default: 500ms)
//
// # Config File
//
//	units: uA
//	shift: -0.2
//	multiprocess: true
//	workers: 8
//	ignore:
//	  - "*_old*"
//
// # Validation
//
//   - Workers must be positive and not exceed CPU cores * 4
//   - Units must be one of A, mA, uA, nA (case-sensitive)
//   - Report must be one of text, json, yaml
//   - RateLimit must be non-negative
//   - Ignore patterns must be valid globs
//
// The configuration is immutable after loading.
package config
