package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/conneroisu/sitemin/internal/build"
	"github.com/conneroisu/sitemin/internal/config"
	"github.com/conneroisu/sitemin/internal/logging"
	"github.com/conneroisu/sitemin/internal/plugins"
	"github.com/conneroisu/sitemin/internal/plugins/builtin"
)

// app bundles everything a command needs to run builds.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	manager  *plugins.PluginManager
	pipeline *build.Pipeline
}

// newApp loads the configuration from v and registers the minify plugin.
// Invalid minify options are reported here, before any file is read.
func newApp(ctx context.Context, v *viper.Viper, logOutput io.Writer) (*app, error) {
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: logOutput,
	})

	manager := plugins.NewPluginManager(logger)
	err = manager.RegisterPlugin(ctx, builtin.NewMinifyPlugin(logger), plugins.PluginConfig{
		Name:    "minify",
		Enabled: true,
		Config:  cfg.Minify,
		Settings: plugins.PluginSettings{
			ResourceLimits: plugins.ResourceLimits{MaxGoroutines: cfg.Build.Workers},
		},
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		manager:  manager,
		pipeline: build.NewPipeline(cfg.Build, manager, logger),
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.manager.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, err, "Plugin shutdown failed")
	}
}
