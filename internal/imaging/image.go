// Package imaging holds the decoded-frame data model: pixel type tags and
// an immutable, refcounted image buffer that can be cloned across threads
// without copying pixels.
package imaging

import "sync/atomic"

// PixelType tags the layout of an Image's pixel buffer.
type PixelType int

const (
	// PixelTypeNone marks an absent/null image.
	PixelTypeNone PixelType = iota
	PixelTypeL_U8
	PixelTypeLA_U8
	PixelTypeRGB_U8
	PixelTypeRGBA_U8
	PixelTypeRGB_U16
	PixelTypeRGBA_U16
	PixelTypeRGB_F32
	PixelTypeRGBA_F32
)

// Channels returns the number of channels for a pixel type.
func (pt PixelType) Channels() int {
	switch pt {
	case PixelTypeL_U8:
		return 1
	case PixelTypeLA_U8:
		return 2
	case PixelTypeRGB_U8, PixelTypeRGB_U16, PixelTypeRGB_F32:
		return 3
	case PixelTypeRGBA_U8, PixelTypeRGBA_U16, PixelTypeRGBA_F32:
		return 4
	default:
		return 0
	}
}

// String renders a PixelType the way an info command or log line wants it.
func (pt PixelType) String() string {
	switch pt {
	case PixelTypeL_U8:
		return "L_U8"
	case PixelTypeLA_U8:
		return "LA_U8"
	case PixelTypeRGB_U8:
		return "RGB_U8"
	case PixelTypeRGBA_U8:
		return "RGBA_U8"
	case PixelTypeRGB_U16:
		return "RGB_U16"
	case PixelTypeRGBA_U16:
		return "RGBA_U16"
	case PixelTypeRGB_F32:
		return "RGB_F32"
	case PixelTypeRGBA_F32:
		return "RGBA_F32"
	default:
		return "none"
	}
}

// BytesPerChannel returns the storage width of one channel in bytes.
func (pt PixelType) BytesPerChannel() int {
	switch pt {
	case PixelTypeL_U8, PixelTypeLA_U8, PixelTypeRGB_U8, PixelTypeRGBA_U8:
		return 1
	case PixelTypeRGB_U16, PixelTypeRGBA_U16:
		return 2
	case PixelTypeRGB_F32, PixelTypeRGBA_F32:
		return 4
	default:
		return 0
	}
}

// Info describes an image's dimensions and pixel layout, advertised by a
// Reader's Info response and matched against every decoded frame.
type Info struct {
	Width     int
	Height    int
	PixelType PixelType
}

// BytesPerRow returns the row stride implied by Width and PixelType, with no
// extra alignment padding.
func (i Info) BytesPerRow() int {
	return i.Width * i.PixelType.Channels() * i.PixelType.BytesPerChannel()
}

// DataSize returns the total buffer size implied by Info.
func (i Info) DataSize() int {
	return i.BytesPerRow() * i.Height
}

// Image is an immutable, refcounted pixel buffer. The zero value is not a
// valid image; use New or Null. Clone is cheap: it shares the underlying
// byte slice and bumps a reference count, matching the "shared frame
// buffers" design note — no aliasing writes are ever performed against the
// shared slice once published.
type Image struct {
	info Info
	data []byte
	refs *int32
}

// New wraps data as an Image of the given Info. data is not copied and must
// not be mutated by the caller after this call.
func New(info Info, data []byte) Image {
	n := int32(1)
	return Image{info: info, data: data, refs: &n}
}

// Null returns the first-class "no image" sentinel: Reader results and
// VideoLayer slots use this instead of a raw nil pointer.
func Null() Image {
	return Image{}
}

// IsNull reports whether img is the null sentinel.
func (img Image) IsNull() bool {
	return img.data == nil
}

// Info returns the image's dimensions and pixel type.
func (img Image) Info() Info {
	return img.info
}

// Data returns the underlying pixel bytes. Callers must treat this as
// read-only: the buffer may be shared with other clones.
func (img Image) Data() []byte {
	return img.data
}

// Clone returns a new handle sharing the same underlying buffer, bumping
// the reference count. Safe to call from any goroutine.
func (img Image) Clone() Image {
	if img.refs != nil {
		atomic.AddInt32(img.refs, 1)
	}
	return img
}

// Release decrements the reference count. The Go garbage collector frees
// the backing array once all clones are unreachable regardless of this
// count; Release exists so callers can assert expected lifetime in tests
// and diagnostics without relying on GC timing.
func (img Image) Release() int32 {
	if img.refs == nil {
		return 0
	}
	return atomic.AddInt32(img.refs, -1)
}
