// Package sequenceio is the avio.Reader plugin for still images and
// numbered image sequences, the "image sequence" backend: PPM
// via a hand-written decoder, PNG/BMP/TIFF via golang.org/x/image.
package sequenceio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/timelineio/tlplay/internal/avio"
	"github.com/timelineio/tlplay/internal/future"
	"github.com/timelineio/tlplay/internal/imaging"
	"github.com/timelineio/tlplay/internal/mediapath"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// templatePattern matches the "%0Nd" frame-number token a mediapath.Path's
// String() method emits for a sequence, e.g. "TimelineTest.%02d.ppm".
var templatePattern = regexp.MustCompile(`^(.*)%0(\d+)d(\.[^.]*)?$`)

func parsePath(raw string) mediapath.Path {
	dir, file := filepath.Split(raw)
	if m := templatePattern.FindStringSubmatch(file); m != nil {
		padding, _ := strconv.Atoi(m[2])
		return mediapath.NewSequence(dir, m[1], padding, m[3])
	}
	return mediapath.New(raw)
}

// Reader implements avio.Reader over a still image or numbered image
// sequence on local disk.
type Reader struct {
	path mediapath.Path
	opts avio.Options
	rate float64

	mu        sync.Mutex
	startF    int
	endF      int
	hasRange  bool

	inflight int32
	stopped  atomic.Bool
}

// NewFactory returns an avio.Factory for this plugin. Callers pass sequence
// range hints via opts.IOOptions ("rate", "start_frame", "end_frame");
// without them the reader covers the single frame 0 at rate 24. This plugin
// never scans a directory to discover the range itself.
func NewFactory() avio.Factory {
	return func(path string, opts avio.Options) (avio.Reader, error) {
		p := parsePath(path)
		r := &Reader{path: p, opts: opts, rate: 24}
		if v, ok := opts.IOOptions["rate"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				r.rate = f
			}
		}
		if s, ok := opts.IOOptions["start_frame"]; ok {
			if e, ok2 := opts.IOOptions["end_frame"]; ok2 {
				start, err1 := strconv.Atoi(s)
				end, err2 := strconv.Atoi(e)
				if err1 == nil && err2 == nil {
					r.startF, r.endF, r.hasRange = start, end, true
				}
			}
		}
		return r, nil
	}
}

func (r *Reader) Path() string { return r.path.String() }

func (r *Reader) availableRange() rationaltime.Range {
	if !r.hasRange {
		return rationaltime.NewRange(rationaltime.New(0, r.rate), rationaltime.New(1, r.rate))
	}
	start := rationaltime.New(float64(r.startF), r.rate)
	duration := rationaltime.New(float64(r.endF-r.startF+1), r.rate)
	return rationaltime.NewRange(start, duration)
}

func (r *Reader) GetInfo() future.Future[avio.Info] {
	if r.stopped.Load() {
		return future.Failed[avio.Info](avio.NewReadError(avio.ErrReaderClosed, r.Path(), nil))
	}
	rng := r.availableRange()
	data, err := r.readFile(r.startF)
	if err != nil {
		return future.Failed[avio.Info](err)
	}
	decoded, err := decodeByExtension(r.path.Extension(), bytes.NewReader(data))
	if err != nil {
		return future.Failed[avio.Info](avio.NewReadError(avio.ErrOpenFailed, r.Path(), err))
	}
	return future.Resolved(avio.Info{
		Video:     []imaging.Info{decoded.Info()},
		VideoTime: rng,
	})
}

func (r *Reader) ReadVideo(t rationaltime.Time, layer int) future.Future[avio.VideoFrame] {
	if r.stopped.Load() {
		return future.Failed[avio.VideoFrame](avio.NewReadError(avio.ErrReaderClosed, r.Path(), nil))
	}
	rng := r.availableRange()
	if !rng.Contains(t) {
		return future.Failed[avio.VideoFrame](avio.NewReadError(avio.ErrOutOfRange, r.Path(), nil))
	}

	atomic.AddInt32(&r.inflight, 1)
	p, f := future.New[avio.VideoFrame]()
	go func() {
		defer atomic.AddInt32(&r.inflight, -1)
		frame := int(t.Rescaled(r.rate).Round().Value)
		data, err := r.readFile(frame)
		if err != nil {
			p.Reject(err)
			return
		}
		img, err := decodeByExtension(r.path.Extension(), bytes.NewReader(data))
		if err != nil {
			p.Reject(avio.NewReadError(avio.ErrDecodeFailed, r.Path(), err))
			return
		}
		p.Resolve(avio.VideoFrame{Time: t, Image: img})
	}()
	return f
}

// ReadAudio always fails: image sequences carry no audio.
func (r *Reader) ReadAudio(rng rationaltime.Range) future.Future[avio.AudioData] {
	return future.Failed[avio.AudioData](avio.NewReadError(avio.ErrDecodeFailed, r.Path(), fmt.Errorf("image sequences have no audio")))
}

func (r *Reader) readFile(frame int) ([]byte, error) {
	path := r.path.Get(frame, 0)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, avio.NewReadError(avio.ErrNotFound, path, err)
		}
		return nil, avio.NewReadError(avio.ErrOpenFailed, path, err)
	}
	return data, nil
}

func (r *Reader) HasRequests() bool {
	return atomic.LoadInt32(&r.inflight) > 0
}

// CancelRequests is a no-op: reads are single os.ReadFile calls that
// complete too fast to usefully cancel mid-flight.
func (r *Reader) CancelRequests() {}

func (r *Reader) Stop() {
	r.stopped.Store(true)
}

func (r *Reader) HasStopped() bool {
	return r.stopped.Load()
}

var _ avio.Reader = (*Reader)(nil)
