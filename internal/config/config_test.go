package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, defaultVideoRequestCount, cfg.Timeline.VideoRequestCount)
	assert.Equal(t, defaultAudioRequestCount, cfg.Timeline.AudioRequestCount)
	assert.Equal(t, defaultRequestTimeout, cfg.Timeline.RequestTimeout.Duration())
	assert.Equal(t, defaultReadAheadFrames, cfg.Timeline.ReadAheadFrames)
	assert.Equal(t, defaultReadAheadSeconds, cfg.Timeline.ReadAheadSeconds)
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
  format: "text"

timeline:
  video_request_count: 8
  audio_request_count: 4
  read_ahead_frames: 12
  read_ahead_seconds: 3
  io_options:
    FFmpeg/ThreadCount: "2"
`
	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 8, cfg.Timeline.VideoRequestCount)
	assert.Equal(t, 4, cfg.Timeline.AudioRequestCount)
	assert.Equal(t, 12, cfg.Timeline.ReadAheadFrames)
	assert.Equal(t, 3, cfg.Timeline.ReadAheadSeconds)
	assert.Equal(t, "2", cfg.Timeline.IOOptions["FFmpeg/ThreadCount"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TLPLAY_LOGGING_LEVEL", "warn")
	t.Setenv("TLPLAY_TIMELINE_READ_AHEAD_FRAMES", "20")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Timeline.ReadAheadFrames)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
timeline:
  read_ahead_frames: 8
`
	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	require.NoError(t, err)

	t.Setenv("TLPLAY_TIMELINE_READ_AHEAD_FRAMES", "16")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Timeline.ReadAheadFrames)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Timeline: TimelineConfig{
			VideoRequestCount: 16,
			AudioRequestCount: 16,
		},
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "invalid", Format: "json"},
		Timeline: TimelineConfig{
			VideoRequestCount: 16,
			AudioRequestCount: 16,
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "info", Format: "xml"},
		Timeline: TimelineConfig{
			VideoRequestCount: 16,
			AudioRequestCount: 16,
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_InvalidRequestCounts(t *testing.T) {
	tests := []struct {
		name        string
		video       int
		audio       int
		errContains string
	}{
		{"zero video requests", 0, 16, "video_request_count"},
		{"negative video requests", -1, 16, "video_request_count"},
		{"zero audio requests", 16, 0, "audio_request_count"},
		{"negative audio requests", 16, -1, "audio_request_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Logging: LoggingConfig{Level: "info", Format: "json"},
				Timeline: TimelineConfig{
					VideoRequestCount: tt.video,
					AudioRequestCount: tt.audio,
				},
			}
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidate_NegativeReadAhead(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Timeline: TimelineConfig{
			VideoRequestCount: 16,
			AudioRequestCount: 16,
			ReadAheadFrames:   -1,
		},
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read_ahead_frames")
}

func TestTimelineConfig_AVOptions(t *testing.T) {
	tc := TimelineConfig{
		VideoRequestCount: 16,
		AudioRequestCount: 8,
		RequestTimeout:    Duration(0),
		IOOptions:         map[string]string{"FFmpeg/ThreadCount": "4"},
	}

	opts := tc.AVOptions()
	assert.Equal(t, 16, opts.VideoRequestCount)
	assert.Equal(t, 8, opts.AudioRequestCount)
	assert.Equal(t, "4", opts.IOOptions["FFmpeg/ThreadCount"])
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidContent := `
logging:
  level: "info"
  invalid yaml structure
`
	err := os.WriteFile(configPath, []byte(invalidContent), 0o600)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
