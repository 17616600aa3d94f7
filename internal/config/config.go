// Package config provides configuration management for tlplay using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/timelineio/tlplay/internal/avio"
)

// Default configuration values.
const (
	defaultVideoRequestCount = 16
	defaultAudioRequestCount = 16
	defaultRequestTimeout    = 10 * time.Second
	defaultReadAheadFrames   = 8
	defaultReadAheadSeconds  = 2
)

// Config holds all configuration for the application.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Timeline TimelineConfig `mapstructure:"timeline"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// TimelineConfig holds Timeline Engine configuration, mirroring the Options
// struct a Reader factory takes, plus read-ahead window settings.
type TimelineConfig struct {
	// VideoRequestCount bounds concurrent read_video requests across all
	// Readers.
	VideoRequestCount int `mapstructure:"video_request_count"`
	// AudioRequestCount bounds concurrent read_audio requests across all
	// Readers.
	AudioRequestCount int `mapstructure:"audio_request_count"`
	// RequestTimeout bounds how long a single read may run before failing
	// with ErrTimeout. Accepts Go duration syntax plus 'd'/'w' suffixes.
	RequestTimeout Duration `mapstructure:"request_timeout"`
	// ReadAheadFrames is a video prefetch window, in frames ahead of
	// current_time. It is loaded and validated here only: bootstrap.Load
	// does not pass it to the Playback Controller, which always uses
	// playback.DefaultPrefetch().
	ReadAheadFrames int `mapstructure:"read_ahead_frames"`
	// ReadAheadSeconds is an audio prefetch window, in one-second buckets
	// ahead of current_time. Like ReadAheadFrames, it is not passed to the
	// Playback Controller.
	ReadAheadSeconds int `mapstructure:"read_ahead_seconds"`
	// IOOptions carries plugin-specific configuration passed through
	// unmodified to avio.Options.IOOptions, e.g. FFmpeg/ThreadCount or
	// SequenceIO/DefaultSpeed.
	IOOptions map[string]string `mapstructure:"io_options"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with TLPLAY_ and use underscores for
// nesting. Example: TLPLAY_TIMELINE_READ_AHEAD_FRAMES=12.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tlplay")
		v.AddConfigPath("$HOME/.tlplay")
	}

	v.SetEnvPrefix("TLPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Timeline defaults
	v.SetDefault("timeline.video_request_count", defaultVideoRequestCount)
	v.SetDefault("timeline.audio_request_count", defaultAudioRequestCount)
	v.SetDefault("timeline.request_timeout", defaultRequestTimeout.String())
	v.SetDefault("timeline.read_ahead_frames", defaultReadAheadFrames)
	v.SetDefault("timeline.read_ahead_seconds", defaultReadAheadSeconds)
	v.SetDefault("timeline.io_options", map[string]string{})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Timeline.VideoRequestCount < 1 {
		return fmt.Errorf("timeline.video_request_count must be at least 1")
	}
	if c.Timeline.AudioRequestCount < 1 {
		return fmt.Errorf("timeline.audio_request_count must be at least 1")
	}
	if c.Timeline.ReadAheadFrames < 0 {
		return fmt.Errorf("timeline.read_ahead_frames must not be negative")
	}
	if c.Timeline.ReadAheadSeconds < 0 {
		return fmt.Errorf("timeline.read_ahead_seconds must not be negative")
	}

	return nil
}

// AVOptions translates the Timeline config section into the avio.Options a
// Reader factory is constructed with.
func (t *TimelineConfig) AVOptions() avio.Options {
	ioOpts := make(map[string]string, len(t.IOOptions))
	for k, v := range t.IOOptions {
		ioOpts[k] = v
	}
	return avio.Options{
		VideoRequestCount: t.VideoRequestCount,
		AudioRequestCount: t.AudioRequestCount,
		RequestTimeout:    t.RequestTimeout.Duration(),
		IOOptions:         ioOpts,
	}
}
