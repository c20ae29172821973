package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Minify the input directory into the output directory",
	Long: `Read every file below the input directory, minify the ones matching the
configured patterns and write the result to the output directory.

Examples:
  sitemin build                     # ./src -> ./dist
  sitemin build -i site -o public   # choose directories
  sitemin build -w 8                # minify with 8 workers`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	addBuildFlags(buildCmd.Flags())
}

// addBuildFlags registers the directory and worker flags shared by build and
// watch.
func addBuildFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", "", "input directory (default \"src\")")
	flags.StringP("output", "o", "", "output directory (default \"dist\")")
	flags.IntP("workers", "w", 0, "number of files minified in parallel (default 1)")
}

// bindBuildFlags binds the flags of the running command only, so build and
// watch do not overwrite each other's bindings.
func bindBuildFlags(cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"build.input":   "input",
		"build.output":  "output",
		"build.workers": "workers",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := bindBuildFlags(cmd); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	a, err := newApp(ctx, viper.GetViper(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer a.close(ctx)

	result, err := a.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s in %s\n",
		result.FilesProcessed, result.Output, result.Duration.Round(time.Millisecond))

	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
