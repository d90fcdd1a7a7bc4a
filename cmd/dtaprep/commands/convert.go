package commands

import (
	"github.com/spf13/cobra"
)

func newConvertCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [flags] <directory>",
		Short: "Convert every DTA file in a directory",
		Long: `Converts the Gamry exports directly inside <directory> and writes the
results to <directory>/<outdir>. CV files get a "CV" suffix and CA files a
"CA" suffix. An existing output directory is replaced only after confirmation
(or with --yes).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}

	addConversionFlags(cmd.Flags())

	return cmd
}

func runConvert(cmd *cobra.Command, dir string, opts *Options) error {
	out := cmd.OutOrStdout()

	application, err := loadApp(cmd, opts)
	if err != nil {
		return finish(out, err)
	}
	defer application.Shutdown()

	ctx, release := application.HandleSignals(cmd.Context())
	defer release()

	_, err = application.Run(ctx, dir)
	return finish(out, err)
}
