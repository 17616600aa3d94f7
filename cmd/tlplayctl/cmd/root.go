// Package cmd implements the CLI commands for tlplayctl.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/timelineio/tlplay/internal/config"
	"github.com/timelineio/tlplay/internal/observability"
	"github.com/timelineio/tlplay/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// appConfig and appLogger are populated by initRuntime before
	// any subcommand's RunE runs, the same way a cobra PersistentPreRunE
	// chain hands state down in the teacher CLI.
	appConfig *config.Config
	appLogger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "tlplayctl",
	Short:   "Headless timeline playback engine",
	Version: version.Short(),
	Long: `tlplayctl drives an OpenTimelineIO-described edit through a Timeline
Engine and Playback Controller, decoding clips with ffmpeg and image-sequence
readers and stepping current_time forward, in reverse, or frame by frame.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initRuntime()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default search: config.* in ., ./configs, /etc/tlplay, $HOME/.tlplay)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides config")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json), overrides config")
}

// initRuntime loads configuration and builds the process logger, stashing
// both in package-level vars subcommands read from. --log-level/--log-format
// are applied after Load so they win over both the config file and
// TLPLAY_LOGGING_* environment variables, matching cobra's usual flag
// precedence.
func initRuntime() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	appConfig = cfg
	appLogger = observability.NewLogger(cfg.Logging)
	slog.SetDefault(appLogger)
	return nil
}
