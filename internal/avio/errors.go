package avio

import "errors"

// Error kinds returned by Reader implementations, matching the closed set a
// Timeline Engine caller needs to branch on. Kept as a plain
// error-variable set rather than a custom error-code enum, following the
// sentinel style of a pipeline package's errors.go.
var (
	// ErrNotFound is returned when the referenced media path does not exist.
	ErrNotFound = errors.New("avio: media not found")
	// ErrOpenFailed is returned when the underlying decoder (ffmpeg, image
	// decoder) could not open or probe the media at all.
	ErrOpenFailed = errors.New("avio: failed to open media")
	// ErrDecodeFailed is returned when a specific frame or audio range could
	// not be decoded, even though the media opened successfully.
	ErrDecodeFailed = errors.New("avio: failed to decode")
	// ErrCancelled is returned for in-flight requests that were cancelled via
	// CancelRequests before completion.
	ErrCancelled = errors.New("avio: request cancelled")
	// ErrTimeout is returned when a request could not be admitted or
	// completed within its configured deadline.
	ErrTimeout = errors.New("avio: request timed out")
	// ErrOutOfRange is returned when the requested time or range falls
	// outside the reader's available range.
	ErrOutOfRange = errors.New("avio: time out of available range")
	// ErrReaderClosed is returned for any request made after Stop has been
	// called on the reader.
	ErrReaderClosed = errors.New("avio: reader is stopped")
)

// ReadError wraps one of the sentinel errors above with the path that
// produced it and an optional underlying cause — enough context for a
// caller or log line without losing errors.Is matching on Kind.
type ReadError struct {
	Kind error
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Err != nil && e.Err != e.Kind {
		return e.Kind.Error() + ": " + e.Path + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Path
}

func (e *ReadError) Unwrap() error {
	return e.Kind
}

// NewReadError builds a ReadError for the given kind, path, and optional
// underlying cause.
func NewReadError(kind error, path string, cause error) *ReadError {
	return &ReadError{Kind: kind, Path: path, Err: cause}
}
