package commands

import (
	"github.com/sonemaro/dtaprep/internal/config"
	"github.com/spf13/cobra"
)

func newWatchCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <directory>",
		Short: "Convert a directory, then keep converting new files",
		Long: `Converts the exports already in <directory>, then watches it and converts
every DTA file that is created or rewritten until interrupted. A file is
converted once it has been quiet for the debounce interval.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	addConversionFlags(cmd.Flags())
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "quiet period before a changed file is converted")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, opts *Options) error {
	out := cmd.OutOrStdout()

	application, err := loadApp(cmd, opts)
	if err != nil {
		return finish(out, err)
	}
	defer application.Shutdown()

	ctx, release := application.HandleSignals(cmd.Context())
	defer release()

	_, err = application.Watch(ctx, dir)
	return finish(out, err)
}
