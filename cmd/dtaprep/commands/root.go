/*
Package commands implements the dtaprep command line: the root command, which
converts a directory, and the convert, watch and version subcommands.

Settings are read through internal/config, so every conversion flag can also
come from a DTAPREP_* variable or the config file.
*/
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sonemaro/dtaprep/cmd/dtaprep/app"
	"github.com/sonemaro/dtaprep/internal/config"
	"github.com/sonemaro/dtaprep/internal/version"
	"github.com/sonemaro/dtaprep/pkg/dta"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrReported marks an error that was already printed as a "[-]" line
var ErrReported = errors.New("run failed")

// Options holds command-line options that apply to all commands
type Options struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the application
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "dtaprep [command] [flags] <directory>",
		Short: "Prepare Gamry DTA exports for OriginLab",
		Long: `dtaprep v` + version.Version + `
========================================

Reformats Gamry potentiostat exports (*.DTA) into two tab-separated columns
that OriginLab imports directly: voltage/current for cyclic voltammetry (CV)
files and time/current for chronoamperometry (CA) files.

Running dtaprep with a directory and no command is the same as
"dtaprep convert <directory>".`,
		Example: `  dtaprep ./exports
  dtaprep -u uA -s 0.197 ./exports
  dtaprep convert -m -w 8 -o converted ./exports
  dtaprep watch -u mA ./exports`,
		Version:       version.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runConvert(cmd, args[0], opts)
		},
	}
	rootCmd.SetVersionTemplate("dtaprep {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "print the effective settings and debug logs")
	flags.CountP("verbose", "v", "log verbosity (-v info, -vv debug, -vvv trace)")
	flags.Bool("no-progress", false, "disable progress reporting")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-format", "json", "log format: json|console")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default: ./dtaprep.yaml or ~/.config/dtaprep/dtaprep.yaml)")

	addConversionFlags(rootCmd.Flags())

	rootCmd.AddCommand(
		newConvertCommand(opts),
		newWatchCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// addConversionFlags registers the flags shared by convert, watch and the root command
func addConversionFlags(flags *pflag.FlagSet) {
	flags.Float64P("shift", "s", 0, "voltage shift in V added to CV potentials")
	flags.StringP("outdir", "o", config.DefaultOutDir, "output directory name, created inside the input directory")
	flags.StringP("units", "u", config.DefaultUnits, "current units: "+unitChoices())
	flags.BoolP("multiprocess", "m", false, "convert files through a worker pool")
	flags.IntP("workers", "w", config.DefaultWorkers, "number of pool workers")
	flags.IntP("rate-limit", "r", 0, "maximum files per second in the pool (0 is unlimited)")
	flags.StringSliceP("ignore", "i", nil, "patterns of file names to skip (can be repeated)")
	flags.BoolP("yes", "y", false, "replace an existing output directory without asking")
	flags.String("report", string(config.ReportFormatText), "run report format: text|json|yaml")
	flags.String("report-file", "", "write the run report to a file instead of stdout")
	flags.Bool("no-report", false, "do not print the run report")
}

func unitChoices() string {
	names := make([]string, 0, len(dta.Units()))
	for _, u := range dta.Units() {
		names = append(names, u.String())
	}
	return strings.Join(names, "|")
}

// loadApp reads the configuration for cmd and builds the application
func loadApp(cmd *cobra.Command, opts *Options) (*app.App, error) {
	cfg, err := config.LoadWith(config.Options{
		ConfigFile: opts.ConfigPath,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}

	return app.New(&cfg,
		app.WithInput(cmd.InOrStdin()),
		app.WithOutput(cmd.OutOrStdout()),
	)
}

// finish prints the closing lines of a run and marks failures as reported
func finish(out io.Writer, err error) error {
	if err != nil {
		fmt.Fprintf(out, "[-] %s: %v\n", app.ErrorKind(err), err)
	}
	fmt.Fprintln(out, "[+] Exiting")

	if err != nil {
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	return nil
}
