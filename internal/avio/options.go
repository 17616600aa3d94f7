package avio

import "time"

// Options configures a Reader instance. IOOptions carries
// plugin-specific knobs (e.g. ffmpeg hardware-acceleration hints) that the
// generic engine never interprets itself.
type Options struct {
	// VideoRequestCount bounds how many read_video requests the I/O Manager
	// admits concurrently across all open readers before new calls queue,
	// per-path round-robin, behind the ones already in flight.
	VideoRequestCount int
	// AudioRequestCount is VideoRequestCount's counterpart for read_audio.
	AudioRequestCount int
	// RequestTimeout bounds how long a single request may run before it
	// fails with ErrTimeout. Zero means no per-request deadline.
	RequestTimeout time.Duration
	// IOOptions carries plugin-specific configuration, e.g. hardware
	// acceleration mode for the ffmpeg plugin.
	IOOptions map[string]string
}

// DefaultOptions returns the Options a Reader is constructed with when the
// caller does not override them.
func DefaultOptions() Options {
	return Options{
		VideoRequestCount: 4,
		AudioRequestCount: 4,
		RequestTimeout:    10 * time.Second,
		IOOptions:         map[string]string{},
	}
}
