// Package timelineengine is the Timeline Engine façade: the
// single entry point that resolves the composition at a time, dispatches
// reads through the I/O Manager, and assembles the result — never failing
// a get_video/get_audio call outright, so a renderer can keep drawing
// through decode errors.
package timelineengine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/timelineio/tlplay/internal/composition"
	"github.com/timelineio/tlplay/internal/future"
	"github.com/timelineio/tlplay/internal/imaging"
	"github.com/timelineio/tlplay/internal/ioengine"
	"github.com/timelineio/tlplay/internal/otio"
	"github.com/timelineio/tlplay/internal/pcm"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// AVInfo summarizes the timeline's media format, queried once from the
// first clip of each kind — enough for a caller to size buffers before any
// frame is read.
type AVInfo struct {
	Video []imaging.Info
	Audio *pcm.Info
}

// Engine is the Timeline Engine. All public methods are meant to be called
// from a single owning thread; it holds no lock of its own
// beyond what's needed to make SetActiveRanges/CancelRequests safe to call
// from a background ticker.
type Engine struct {
	timeline *otio.Timeline
	io       *ioengine.Manager
	log      *slog.Logger

	mu     sync.Mutex
	active []rationaltime.Range
}

// New constructs an Engine over an already-loaded Timeline.
func New(timeline *otio.Timeline, io *ioengine.Manager, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{timeline: timeline, io: io, log: log}
}

// GetDuration returns the timeline's duration, stable after construction.
func (e *Engine) GetDuration() rationaltime.Time {
	return e.timeline.Duration()
}

// GetGlobalStartTime returns the timeline's global start time.
func (e *Engine) GetGlobalStartTime() rationaltime.Time {
	return e.timeline.GlobalStartTime
}

// GetAVInfo probes and returns the format of the first video and audio
// clip found in the timeline.
func (e *Engine) GetAVInfo(ctx context.Context) AVInfo {
	var info AVInfo
	if path, ok := firstClipPath(e.timeline, otio.KindVideo); ok {
		if i, err := e.io.GetInfo(ctx, path).Wait(); err == nil {
			info.Video = i.Video
		}
	}
	if path, ok := firstClipPath(e.timeline, otio.KindAudio); ok {
		if i, err := e.io.GetInfo(ctx, path).Wait(); err == nil {
			info.Audio = i.Audio
		}
	}
	return info
}

func firstClipPath(tl *otio.Timeline, kind otio.Kind) (string, bool) {
	for _, tr := range tl.Tracks.TracksOfKind(kind) {
		for _, c := range tr.Children {
			if clip, ok := c.(*otio.Clip); ok {
				return clip.MediaReference.Path.String(), true
			}
		}
	}
	return "", false
}

// GetVideo resolves the read plan at t, dispatches reads through the I/O
// Manager, and assembles a VideoData. It never fails: a resolver error or
// any individual read failure leaves that layer's image(s) null and is
// logged at Warning instead, per the "never fails outright" propagation
// policy. Like every get_* call, it returns immediately with a
// Future and never blocks the caller.
func (e *Engine) GetVideo(ctx context.Context, t rationaltime.Time) future.Future[VideoData] {
	p, f := future.New[VideoData]()
	go func() {
		p.Resolve(e.resolveVideo(ctx, t))
	}()
	return f
}

func (e *Engine) resolveVideo(ctx context.Context, t rationaltime.Time) VideoData {
	plan, err := composition.ResolveVideo(e.timeline, t)
	if err != nil {
		e.log.Warn("resolving video composition", "time", t, "error", err)
		return VideoData{Time: t}
	}

	layers := make([]VideoLayer, len(plan))
	var wg sync.WaitGroup
	for i, item := range plan {
		layers[i] = VideoLayer{Track: item.Track, Transition: item.Transition, Value: item.TransitionValue}
		if item.Gap {
			continue
		}
		wg.Add(1)
		go func(i int, item composition.VideoLayer) {
			defer wg.Done()
			frame, err := e.io.ReadVideo(ctx, item.PathA, item.MediaTimeA, 0).Wait()
			if err != nil {
				e.log.Warn("reading video frame", "path", item.PathA, "time", item.MediaTimeA, "error", err)
			} else {
				layers[i].ImageA = frame.Image
			}
			if item.Transition == otio.TransitionDissolve {
				frameB, err := e.io.ReadVideo(ctx, item.PathB, item.MediaTimeB, 0).Wait()
				if err != nil {
					e.log.Warn("reading video frame", "path", item.PathB, "time", item.MediaTimeB, "error", err)
				} else {
					layers[i].ImageB = frameB.Image
				}
			}
		}(i, item)
	}
	wg.Wait()

	return VideoData{Time: t, Layers: layers}
}

// GetAudio builds the one-second audio bucket starting at seconds,
// concatenating each track's per-segment reads (or silence for gaps) in
// composition order. Returns a Future like every other
// get_* call.
func (e *Engine) GetAudio(ctx context.Context, seconds float64) future.Future[AudioData] {
	p, f := future.New[AudioData]()
	go func() {
		p.Resolve(e.resolveAudio(ctx, seconds))
	}()
	return f
}

func (e *Engine) resolveAudio(ctx context.Context, seconds float64) AudioData {
	rate := e.timeline.Rate
	r := rationaltime.NewRange(rationaltime.FromSeconds(seconds, rate), rationaltime.New(1, 1))
	layers := composition.ResolveAudio(e.timeline, r)

	out := make([]AudioLayer, 0, len(layers))
	for _, layer := range layers {
		var blocks []pcm.Block
		var info pcm.Info
		haveInfo := false
		for _, seg := range layer.Segments {
			if seg.Gap {
				if haveInfo {
					blocks = append(blocks, pcm.Silence(info, info.SampleCount(seg.CompRange.Duration)))
				}
				continue
			}
			data, err := e.io.ReadAudio(ctx, seg.Path, seg.MediaRange).Wait()
			if err != nil {
				e.log.Warn("reading audio", "path", seg.Path, "range", seg.MediaRange, "error", err)
				if haveInfo {
					blocks = append(blocks, pcm.Silence(info, info.SampleCount(seg.CompRange.Duration)))
				}
				continue
			}
			info = data.Block.Info
			haveInfo = true
			blocks = append(blocks, data.Block)
		}
		if len(blocks) == 0 {
			continue
		}
		out = append(out, AudioLayer{Track: layer.Track, Block: pcm.Concat(blocks...)})
	}
	return AudioData{Range: r, Layers: out}
}

// SetActiveRanges replaces the set of composition ranges readers must stay
// warm for. Paths newly covered are pre-opened asynchronously; paths no
// longer covered by any range become eviction candidates.
func (e *Engine) SetActiveRanges(ranges []rationaltime.Range) {
	e.mu.Lock()
	e.active = ranges
	e.mu.Unlock()

	keep := make(map[string]bool)
	var warm []string
	for _, r := range ranges {
		for _, path := range pathsOverlapping(e.timeline, r) {
			if !keep[path] {
				warm = append(warm, path)
			}
			keep[path] = true
		}
	}
	e.io.Warm(warm)
	e.io.EvictExcept(keep)
}

func pathsOverlapping(tl *otio.Timeline, r rationaltime.Range) []string {
	var paths []string
	for _, kind := range []otio.Kind{otio.KindVideo, otio.KindAudio} {
		for _, tr := range tl.Tracks.TracksOfKind(kind) {
			for _, cr := range otio.TrackChildrenRanges(tr, tl.Rate) {
				if !cr.Range.Overlaps(r) {
					continue
				}
				if clip, ok := cr.Child.(*otio.Clip); ok {
					paths = append(paths, clip.MediaReference.Path.String())
				}
			}
		}
	}
	return paths
}

// CancelRequests propagates cancellation to the I/O Manager.
func (e *Engine) CancelRequests() {
	e.io.CancelRequests()
}
