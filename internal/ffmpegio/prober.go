package ffmpegio

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/timelineio/tlplay/internal/imaging"
	"github.com/timelineio/tlplay/internal/pcm"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// probeResult mirrors the subset of `ffprobe -print_format json` output this
// plugin cares about.
type probeResult struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	PixFmt       string `json:"pix_fmt,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	SampleRate   string `json:"sample_rate,omitempty"`
	Channels     int    `json:"channels,omitempty"`
}

func parseFramerate(fr string) float64 {
	parts := strings.Split(fr, "/")
	if len(parts) != 2 {
		f, _ := strconv.ParseFloat(fr, 64)
		return f
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func runProbe(ctx context.Context, ffprobePath, path string, timeout time.Duration) (*probeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ffmpegio: probe timed out after %v", timeout)
		}
		return nil, fmt.Errorf("ffmpegio: ffprobe failed: %w", err)
	}

	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("ffmpegio: decoding ffprobe output: %w", err)
	}
	return &result, nil
}

// videoInfo returns the image description of the first video stream in a
// raw ffprobe result, or false if there is none.
func (r *probeResult) videoInfo() (imaging.Info, bool) {
	for _, s := range r.Streams {
		if s.CodecType != "video" {
			continue
		}
		return imaging.Info{Width: s.Width, Height: s.Height, PixelType: imaging.PixelTypeRGB_U8}, true
	}
	return imaging.Info{}, false
}

func (r *probeResult) videoRate() float64 {
	for _, s := range r.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.AvgFrameRate != "" {
			if rate := parseFramerate(s.AvgFrameRate); rate > 0 {
				return rate
			}
		}
		if s.RFrameRate != "" {
			return parseFramerate(s.RFrameRate)
		}
	}
	return 0
}

func (r *probeResult) audioInfo() (pcm.Info, bool) {
	for _, s := range r.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, _ := strconv.Atoi(s.SampleRate)
		if rate == 0 {
			rate = 48000
		}
		return pcm.Info{Channels: s.Channels, SampleRate: rate, DataType: pcm.DataTypeS16}, true
	}
	return pcm.Info{}, false
}

func (r *probeResult) duration(rate float64) rationaltime.Time {
	seconds, _ := strconv.ParseFloat(r.Format.Duration, 64)
	if rate <= 0 {
		rate = 24
	}
	return rationaltime.FromSeconds(seconds, rate)
}
