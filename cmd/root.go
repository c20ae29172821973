// Package cmd provides the command-line interface for sitemin.
//
// Configuration is read with Viper from, in order of precedence:
//  1. Command-line flags (--input, --workers, --log-level, ...)
//  2. Environment variables with the SITEMIN_ prefix (SITEMIN_BUILD_WORKERS=4)
//  3. The configuration file: --config, then SITEMIN_CONFIG_FILE, then
//     .sitemin.yml in the current directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitemin",
	Short: "Minify the CSS, HTML and JS of a static site",
	Long: `sitemin copies a site directory to an output directory, minifying every
file whose path matches the configured CSS, HTML or JS glob patterns.
Embedded <style> blocks, style attributes and <script> blocks in HTML are
minified too. Files that match nothing are copied unchanged.

Quick Start:
  sitemin build                   Minify ./src into ./dist
  sitemin build -i site -o public Choose the directories
  sitemin watch                   Rebuild whenever the input changes

Example .sitemin.yml:
  build:
    input: site
    output: public
    workers: 4
  minify:
    patterns_css: ["*.css", "*.bcss"]
    patterns_js: null            # disable JS minification
    html:
      remove_comments: false`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .sitemin.yml, can also use SITEMIN_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SITEMIN_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sitemin")
	}

	viper.SetEnvPrefix("SITEMIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && viper.ConfigFileUsed() != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		os.Exit(1)
	}
}
