// Package avio defines the Asset Reader plugin contract: the
// polymorphic interface every media-backed reader (ffmpeg subprocess, image
// sequence, movie file) implements so the I/O Manager and Timeline Engine
// never depend on a concrete decoder.
package avio

import (
	"github.com/timelineio/tlplay/internal/future"
	"github.com/timelineio/tlplay/internal/imaging"
	"github.com/timelineio/tlplay/internal/pcm"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// Info describes the media a Reader was opened against: available video
// and audio ranges, per-layer video format, and any reader-specific tags
// (codec name, container, probed metadata).
type Info struct {
	Video     []imaging.Info
	VideoTime rationaltime.Range
	Audio     *pcm.Info
	AudioTime rationaltime.Range
	Tags      map[string]string
}

// VideoFrame is the result of a read_video request: the decoded image plus
// the media time it was decoded at (which may differ slightly from the
// request if the reader only has keyframe-aligned access).
type VideoFrame struct {
	Time  rationaltime.Time
	Image imaging.Image
}

// AudioData is the result of a read_audio request.
type AudioData struct {
	Range rationaltime.Range
	Block pcm.Block
}

// Reader is the contract every asset-reading plugin implements. All
// get_*/read_* calls return immediately with a Future; the actual decode
// runs on a reader-owned goroutine. Reader implementations must be safe for
// concurrent use by multiple callers.
type Reader interface {
	// Path returns the media path this reader was opened against.
	Path() string

	// GetInfo returns probed media information.
	GetInfo() future.Future[Info]

	// ReadVideo requests a single decoded frame at the given media time on
	// the given layer (0 = primary).
	ReadVideo(time rationaltime.Time, layer int) future.Future[VideoFrame]

	// ReadAudio requests a decoded PCM block covering the given media range.
	ReadAudio(r rationaltime.Range) future.Future[AudioData]

	// HasRequests reports whether any read_video/read_audio request is
	// still outstanding.
	HasRequests() bool

	// CancelRequests fails every outstanding request with ErrCancelled
	// without stopping the reader itself.
	CancelRequests()

	// Stop releases the reader's underlying resources (subprocess, file
	// handles). After Stop, every call returns ErrReaderClosed.
	Stop()

	// HasStopped reports whether Stop has completed.
	HasStopped() bool
}

// Factory constructs a Reader for a given media path and options. Plugin
// packages register a Factory with internal/plugin's registry.
type Factory func(path string, opts Options) (Reader, error)
