// Package cmd implements the CLI commands for ytarr.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytarr/ytarr/internal/config"
	"github.com/ytarr/ytarr/internal/observability"
	"github.com/ytarr/ytarr/internal/version"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// cfg holds the loaded configuration, shared by all subcommands.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "ytarr",
	Short:   "YouTube playback resolution and DASH manifest synthesis service",
	Version: version.Short(),
	Long: `ytarr resolves YouTube video IDs into playable items for media hosts.

Depending on the configured playback mode it either hands the video off to
an external application, deep-links an installed player plugin, or runs
yt-dlp extraction and synthesizes an on-demand DASH manifest from the
extracted format catalog.`,
	// PersistentPreRunE is set in init() to avoid initialization cycle
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	// Set PersistentPreRunE here to avoid initialization cycle
	// (initLogging references rootCmd.PersistentFlags)
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return initLogging()
	}

	// Global flags
	// Note: These flags are NOT merged into the config at load time. Instead,
	// we check if they were explicitly set using Changed() and only then
	// override the config/env values. This preserves the correct priority:
	// CLI flag > env var > config > default
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ytarr.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (text, json)")
}

// initLogging configures the slog logger based on configuration.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format) - only if explicitly provided
//  2. Environment variables (YTARR_LOGGING_LEVEL, YTARR_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (info, json)
func initLogging() error {
	// Start with loaded values (config.Load handles precedence of
	// env > config > default)
	logCfg := cfg.Logging

	// Override with CLI flags only if explicitly set by user. Flag defaults
	// must not shadow env/config values.
	if rootCmd.PersistentFlags().Changed("log-level") {
		logCfg.Level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		logCfg.Format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	logCfg.Level = strings.ToLower(logCfg.Level)
	logCfg.Format = strings.ToLower(logCfg.Format)

	// Handle "warning" as an alias for "warn"
	if logCfg.Level == "warning" {
		logCfg.Level = "warn"
	}

	logger := observability.NewLoggerWithWriter(logCfg, os.Stderr)
	logger = logger.With(slog.String("app", version.ApplicationName))
	observability.SetDefault(logger)

	return nil
}
