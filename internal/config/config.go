// Package config provides configuration management for sitemin using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The application settings (build directories, worker count, logging) are read
// through Viper with the SITEMIN_ environment prefix. The minify section is
// kept as a raw map and handed to the minify plugin, which decodes it strictly
// with ParseMinifyOptions.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Build  BuildConfig            `yaml:"build"`
	Log    LogConfig              `yaml:"log"`
	Minify map[string]interface{} `yaml:"minify"`
}

type BuildConfig struct {
	Input   string   `yaml:"input"`
	Output  string   `yaml:"output"`
	Workers int      `yaml:"workers"`
	Ignore  []string `yaml:"ignore"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("build.input", "src")
	v.SetDefault("build.output", "dist")
	v.SetDefault("build.workers", 1)
	v.SetDefault("build.ignore", []string{".git/**", "node_modules/**"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults for unset keys.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Build: BuildConfig{
			Input:   v.GetString("build.input"),
			Output:  v.GetString("build.output"),
			Workers: v.GetInt("build.workers"),
			Ignore:  v.GetStringSlice("build.ignore"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if raw, ok := v.Get("minify").(map[string]interface{}); ok {
		cfg.Minify = raw
	}

	if err := validateBuildConfig(&cfg.Build); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
