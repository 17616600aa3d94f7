package sequenceio

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	timaging "github.com/timelineio/tlplay/internal/imaging"
)

// decodeStdImage decodes any format supported by the standard image
// package plus golang.org/x/image's bmp/tiff codecs, converting the result
// to this engine's packed RGB_U8 buffer. Registered per extension in
// codecFor.
func decodeStdImage(r io.Reader, decode func(io.Reader) (image.Image, error)) (timaging.Image, error) {
	img, err := decode(r)
	if err != nil {
		return timaging.Image{}, fmt.Errorf("sequenceio: decoding image: %w", err)
	}
	return toRGBU8(img), nil
}

func toRGBU8(img image.Image) timaging.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	info := timaging.Info{Width: w, Height: h, PixelType: timaging.PixelTypeRGB_U8}
	data := make([]byte, info.DataSize())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data[i] = byte(r >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(b >> 8)
			i += 3
		}
	}
	return timaging.New(info, data)
}

// decodeByExtension dispatches to the decoder registered for ext (a
// lower-cased extension including the leading dot).
func decodeByExtension(ext string, r io.Reader) (timaging.Image, error) {
	switch strings.ToLower(ext) {
	case ".ppm":
		return decodePPM(r)
	case ".png":
		return decodeStdImage(r, png.Decode)
	case ".bmp":
		return decodeStdImage(r, bmp.Decode)
	case ".tif", ".tiff":
		return decodeStdImage(r, tiff.Decode)
	default:
		return timaging.Image{}, fmt.Errorf("sequenceio: unsupported image extension %q", ext)
	}
}

// SupportedExtensions lists every extension this plugin can decode.
func SupportedExtensions() []string {
	return []string{".ppm", ".png", ".bmp", ".tif", ".tiff"}
}
