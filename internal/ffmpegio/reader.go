package ffmpegio

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timelineio/tlplay/internal/avio"
	"github.com/timelineio/tlplay/internal/future"
	"github.com/timelineio/tlplay/internal/imaging"
	"github.com/timelineio/tlplay/internal/pcm"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// Reader implements avio.Reader against a movie file using ffmpeg/ffprobe
// subprocesses: one probe at open time cached for GetInfo, then one ffmpeg
// invocation per read_video/read_audio request. This trades decode
// throughput for process isolation — a wedged or crashing decode can never
// take the engine down with it, and no in-process codec can corrupt the
// host.
type Reader struct {
	path       string
	ffmpeg     string
	ffprobe    string
	opts       avio.Options
	probeOnce  sync.Once
	probeInfo  avio.Info
	probeErr   error
	rate       float64

	mu       sync.Mutex
	inflight int
	stopped  atomic.Bool
	ctx      context.Context    // parent of every in-flight subprocess call
	cancel   context.CancelFunc // cancels ctx, and everything derived from it
}

// NewFactory returns an avio.Factory that opens movie files with ffmpeg. It
// returns an error wrapping ErrNoFFmpeg at call time (not registration
// time) if the binaries cannot be located. bootstrap checks Available()
// before registering the plugin and skips it with a warning instead.
func NewFactory() avio.Factory {
	return func(path string, opts avio.Options) (avio.Reader, error) {
		bin, err := resolveBinaries()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoFFmpeg, err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		r := &Reader{
			path:    absPath(path),
			ffmpeg:  bin.ffmpeg,
			ffprobe: bin.ffprobe,
			opts:    opts,
			ctx:     ctx,
			cancel:  cancel,
		}
		return r, nil
	}
}

func (r *Reader) Path() string { return r.path }

func (r *Reader) probe() (avio.Info, error) {
	r.probeOnce.Do(func() {
		result, err := runProbe(context.Background(), r.ffprobe, r.path, 10*time.Second)
		if err != nil {
			r.probeErr = avio.NewReadError(avio.ErrOpenFailed, r.path, err)
			return
		}
		r.rate = result.videoRate()
		if r.rate <= 0 {
			r.rate = 24
		}
		info := avio.Info{Tags: result.Format.Tags}
		if vi, ok := result.videoInfo(); ok {
			info.Video = []imaging.Info{vi}
			info.VideoTime = rationaltime.NewRange(rationaltime.New(0, r.rate), result.duration(r.rate))
		}
		if ai, ok := result.audioInfo(); ok {
			info.Audio = &ai
			info.AudioTime = rationaltime.NewRange(rationaltime.New(0, r.rate), result.duration(r.rate))
		}
		r.probeInfo = info
	})
	return r.probeInfo, r.probeErr
}

func (r *Reader) GetInfo() future.Future[avio.Info] {
	if r.stopped.Load() {
		return future.Failed[avio.Info](avio.NewReadError(avio.ErrReaderClosed, r.path, nil))
	}
	info, err := r.probe()
	if err != nil {
		return future.Failed[avio.Info](err)
	}
	return future.Resolved(info)
}

func (r *Reader) beginRequest() {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()
}

func (r *Reader) endRequest() {
	r.mu.Lock()
	r.inflight--
	r.mu.Unlock()
}

func (r *Reader) ReadVideo(t rationaltime.Time, layer int) future.Future[avio.VideoFrame] {
	if r.stopped.Load() {
		return future.Failed[avio.VideoFrame](avio.NewReadError(avio.ErrReaderClosed, r.path, nil))
	}
	info, err := r.probe()
	if err != nil {
		return future.Failed[avio.VideoFrame](err)
	}
	if len(info.Video) == 0 {
		return future.Failed[avio.VideoFrame](avio.NewReadError(avio.ErrDecodeFailed, r.path, fmt.Errorf("no video stream")))
	}
	if !info.VideoTime.Contains(t) {
		return future.Failed[avio.VideoFrame](avio.NewReadError(avio.ErrOutOfRange, r.path, nil))
	}

	p, f := future.New[avio.VideoFrame]()
	r.beginRequest()
	go func() {
		defer r.endRequest()
		img, err := r.decodeFrame(t, info.Video[0])
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(avio.VideoFrame{Time: t, Image: img})
	}()
	return f
}

func (r *Reader) decodeFrame(t rationaltime.Time, vi imaging.Info) (imaging.Image, error) {
	ctx, cancel := r.requestContext()
	defer cancel()

	data := make([]byte, vi.DataSize())
	args := []string{"-v", "error"}
	if hw := selectHWAccel(r.ffmpeg, r.opts.IOOptions); hw != "" {
		args = append(args, "-hwaccel", hw)
	}
	args = append(args,
		"-ss", fmt.Sprintf("%.6f", t.Seconds()),
		"-i", r.path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	cmd := exec.CommandContext(ctx, r.ffmpeg, args...)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.Canceled {
			return imaging.Image{}, avio.NewReadError(avio.ErrCancelled, r.path, err)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return imaging.Image{}, avio.NewReadError(avio.ErrTimeout, r.path, err)
		}
		return imaging.Image{}, avio.NewReadError(avio.ErrDecodeFailed, r.path, err)
	}
	copy(data, out)
	return imaging.New(vi, data), nil
}

func (r *Reader) ReadAudio(rng rationaltime.Range) future.Future[avio.AudioData] {
	if r.stopped.Load() {
		return future.Failed[avio.AudioData](avio.NewReadError(avio.ErrReaderClosed, r.path, nil))
	}
	info, err := r.probe()
	if err != nil {
		return future.Failed[avio.AudioData](err)
	}
	if info.Audio == nil {
		return future.Failed[avio.AudioData](avio.NewReadError(avio.ErrDecodeFailed, r.path, fmt.Errorf("no audio stream")))
	}

	p, f := future.New[avio.AudioData]()
	r.beginRequest()
	go func() {
		defer r.endRequest()
		block, err := r.decodeAudio(rng, *info.Audio)
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(avio.AudioData{Range: rng, Block: block})
	}()
	return f
}

func (r *Reader) decodeAudio(rng rationaltime.Range, ai pcm.Info) (pcm.Block, error) {
	ctx, cancel := r.requestContext()
	defer cancel()

	samples := ai.SampleCount(rng.Duration)
	cmd := exec.CommandContext(ctx, r.ffmpeg,
		"-v", "error",
		"-ss", fmt.Sprintf("%.6f", rng.Start.Seconds()),
		"-t", fmt.Sprintf("%.6f", rng.Duration.Seconds()),
		"-i", r.path,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", ai.SampleRate),
		"-ac", fmt.Sprintf("%d", ai.Channels),
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.Canceled {
			return pcm.Block{}, avio.NewReadError(avio.ErrCancelled, r.path, err)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return pcm.Block{}, avio.NewReadError(avio.ErrTimeout, r.path, err)
		}
		return pcm.Block{}, avio.NewReadError(avio.ErrDecodeFailed, r.path, err)
	}
	return pcm.Block{Info: ai, Data: out}.TrimOrPad(samples), nil
}

func (r *Reader) requestContext() (context.Context, context.CancelFunc) {
	r.mu.Lock()
	base := r.ctx
	r.mu.Unlock()
	if r.opts.RequestTimeout > 0 {
		return context.WithTimeout(base, r.opts.RequestTimeout)
	}
	return context.WithCancel(base)
}

func (r *Reader) HasRequests() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

// CancelRequests cancels every in-flight subprocess for this reader. The
// next request rebuilds the cancellation context, so the reader stays
// usable afterward.
func (r *Reader) CancelRequests() {
	r.mu.Lock()
	r.cancel()
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.mu.Unlock()
}

func (r *Reader) Stop() {
	r.stopped.Store(true)
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
}

func (r *Reader) HasStopped() bool {
	return r.stopped.Load()
}

var _ avio.Reader = (*Reader)(nil)
