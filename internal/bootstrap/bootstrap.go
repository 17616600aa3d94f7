// Package bootstrap is the composition root: it turns a loaded Config plus
// an OTIO document into a running Timeline Engine and Playback Controller,
// wiring the plugin registry, I/O Manager, and logger the way
// cmd/tlplayctl's commands need them assembled.
package bootstrap

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/timelineio/tlplay/internal/config"
	"github.com/timelineio/tlplay/internal/ffmpegio"
	"github.com/timelineio/tlplay/internal/ioengine"
	"github.com/timelineio/tlplay/internal/observability"
	"github.com/timelineio/tlplay/internal/otio"
	"github.com/timelineio/tlplay/internal/playback"
	"github.com/timelineio/tlplay/internal/plugin"
	"github.com/timelineio/tlplay/internal/sequenceio"
	"github.com/timelineio/tlplay/internal/startup"
	"github.com/timelineio/tlplay/internal/timelineengine"
)

// Engine bundles the components a CLI command drives: the Timeline Engine,
// its Playback Controller, and the logger they share.
type Engine struct {
	Timeline   *timelineengine.Engine
	Controller *playback.Controller
	IO         *ioengine.Manager
	Log        *slog.Logger
}

// NewRegistry builds the plugin registry this build ships: ffmpeg for movie
// containers, image sequences for frame-numbered stills. The ffmpeg plugin
// is skipped with a warning (not a fatal error) when ffmpeg/ffprobe aren't
// on PATH, so sequence-only playback still works in a minimal environment.
func NewRegistry(log *slog.Logger) *plugin.Registry {
	reg := plugin.NewRegistry()

	if err := ffmpegio.Available(); err != nil {
		log.Warn("ffmpeg plugin unavailable, movie containers will not play", "error", err)
	} else {
		reg.RegisterTyped("ffmpeg", ffmpegio.Extensions(), plugin.CapabilityVideo|plugin.CapabilityAudio, ffmpegio.NewFactory(), (*ffmpegio.Reader)(nil))
	}

	reg.RegisterTyped("sequenceio", []string{".ppm", ".png", ".bmp", ".tif", ".tiff"}, plugin.CapabilityVideo, sequenceio.NewFactory(), (*sequenceio.Reader)(nil))

	return reg
}

// Load reads an OTIO JSON document from path and assembles a Timeline
// Engine and Playback Controller bound to cfg.
func Load(path string, cfg *config.Config, log *slog.Logger) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: reading %s: %w", path, err)
	}
	timeline, err := otio.Load(data)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parsing %s: %w", path, err)
	}

	sessionID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	log = observability.WithRequestID(log, sessionID)

	reg := NewRegistry(log)

	ioCfg := ioengine.DefaultConfig()
	ioCfg.ReaderOptions = cfg.Timeline.AVOptions()
	mgr := ioengine.NewManager(reg, ioCfg)

	engine := timelineengine.New(timeline, mgr, log)
	controller := playback.New(engine, log)
	controller.SetSpeed(1)

	return &Engine{Timeline: engine, Controller: controller, IO: mgr, Log: log}, nil
}

// NewLogger builds the process-wide structured logger from cfg.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return observability.NewLogger(cfg)
}

// CleanupTempDirs removes temp directories left behind by a crashed prior
// run, logging at Info when any are found.
func CleanupTempDirs(log *slog.Logger) {
	if n, err := startup.CleanupSystemTempDirs(log); err != nil {
		log.Warn("temp directory cleanup failed", "error", err)
	} else if n > 0 {
		log.Info("removed orphaned temp directories", "count", n)
	}
}

// RunClock drives controller.Tick once per frameInterval until stop is
// closed, the way a renderer's vsync callback would in a full player.
func RunClock(controller *playback.Controller, frameInterval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			controller.Tick(context.Background(), now)
		case <-stop:
			return
		}
	}
}
