package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sitemin/internal/build"
	"github.com/conneroisu/sitemin/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild whenever the input directory changes",
	Long: `Run a build, then watch the input directory and rebuild after every
burst of changes. Ignored paths and the output directory are not watched.

Examples:
  sitemin watch                   # watch ./src, write ./dist
  sitemin watch --debounce 1s     # wait longer before rebuilding`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	addBuildFlags(watchCmd.Flags())
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet period before a rebuild")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := bindBuildFlags(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, viper.GetViper(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer a.close(context.Background())

	if _, err := a.pipeline.Run(ctx); err != nil {
		// Keep watching; the next change may fix the input.
		a.logger.Error(ctx, err, "Initial build failed")
	}

	ignore, err := build.IgnoreMatcher(a.cfg.Build)
	if err != nil {
		return err
	}

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.IgnoreFilter(a.cfg.Build.Input, ignore))
	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		a.logger.Info(ctx, "Changes detected, rebuilding", "changes", len(events))
		_, err := a.pipeline.Run(ctx)
		return err
	})

	if err := fileWatcher.AddRecursive(a.cfg.Build.Input); err != nil {
		return fmt.Errorf("failed to watch %s: %w", a.cfg.Build.Input, err)
	}

	fileWatcher.Start(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (press Ctrl+C to stop)\n", a.cfg.Build.Input)

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "Stopping watcher")

	return nil
}
