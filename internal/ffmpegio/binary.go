// Package ffmpegio is the avio.Reader plugin backed by ffmpeg/ffprobe
// subprocesses: one short-lived process per read_video/read_audio request,
// following a per-request spawn model rather than a long-lived decode
// process.
package ffmpegio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// binaries caches the resolved ffmpeg/ffprobe paths for the process
// lifetime; detection shells out and is worth doing once.
var (
	binariesOnce sync.Once
	binaries     resolvedBinaries
	binariesErr  error
)

type resolvedBinaries struct {
	ffmpeg  string
	ffprobe string
	version string
}

// findBinary looks up name via an environment variable override first
// (TLPLAY_FFMPEG_BINARY / TLPLAY_FFPROBE_BINARY), then falls back to PATH.
func findBinary(name, envVar string) (string, error) {
	if override := os.Getenv(envVar); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override, nil
		}
		return "", fmt.Errorf("%s points to %q which does not exist", envVar, override)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", name, err)
	}
	return path, nil
}

var versionRegexp = regexp.MustCompile(`^n?(\d+)\.(\d+)`)

func detectBinaries() (resolvedBinaries, error) {
	ffmpegPath, err := findBinary("ffmpeg", "TLPLAY_FFMPEG_BINARY")
	if err != nil {
		return resolvedBinaries{}, fmt.Errorf("ffmpegio: %w", err)
	}
	ffprobePath, err := findBinary("ffprobe", "TLPLAY_FFPROBE_BINARY")
	if err != nil {
		return resolvedBinaries{}, fmt.Errorf("ffmpegio: %w", err)
	}

	out, err := exec.CommandContext(context.Background(), ffmpegPath, "-version").Output()
	if err != nil {
		return resolvedBinaries{}, fmt.Errorf("ffmpegio: running ffmpeg -version: %w", err)
	}
	version := parseVersion(string(out))

	return resolvedBinaries{ffmpeg: ffmpegPath, ffprobe: ffprobePath, version: version}, nil
}

func parseVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "ffmpeg version") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			return fields[2]
		}
	}
	return ""
}

// resolveBinaries detects and caches ffmpeg/ffprobe once per process.
func resolveBinaries() (resolvedBinaries, error) {
	binariesOnce.Do(func() {
		binaries, binariesErr = detectBinaries()
	})
	return binaries, binariesErr
}

// ErrNoFFmpeg is wrapped by the error NewFactory's factory returns when
// either ffmpeg or ffprobe cannot be located.
var ErrNoFFmpeg = errors.New("ffmpegio: ffmpeg/ffprobe not found")

func majorMinor(version string) (int, int) {
	m := versionRegexp.FindStringSubmatch(version)
	if len(m) < 3 {
		return 0, 0
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return major, minor
}

// Extensions lists the container extensions this plugin claims by default.
func Extensions() []string {
	return []string{".mov", ".mp4", ".mkv", ".avi", ".webm"}
}

// Available reports whether ffmpeg and ffprobe were found, so a caller can
// decide whether to register this plugin at all before touching any media.
func Available() error {
	_, err := resolveBinaries()
	return err
}

func absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
