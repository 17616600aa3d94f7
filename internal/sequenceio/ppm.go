package sequenceio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/timelineio/tlplay/internal/imaging"
)

// decodePPM reads a binary PPM (P6) image: the format tlRender's own test
// fixtures ship in (TimelineTest.%d.ppm), and one no ecosystem package
// decodes — golang.org/x/image covers PNG/BMP/TIFF but not netpbm, so this
// one format gets a small hand-written reader.
func decodePPM(r io.Reader) (imaging.Image, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("sequenceio: reading ppm magic: %w", err)
	}
	if magic != "P6" {
		return imaging.Image{}, fmt.Errorf("sequenceio: unsupported ppm magic %q", magic)
	}

	width, err := readInt(br)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("sequenceio: reading ppm width: %w", err)
	}
	height, err := readInt(br)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("sequenceio: reading ppm height: %w", err)
	}
	maxVal, err := readInt(br)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("sequenceio: reading ppm maxval: %w", err)
	}
	if maxVal != 255 {
		return imaging.Image{}, fmt.Errorf("sequenceio: unsupported ppm maxval %d (only 255 supported)", maxVal)
	}

	// Exactly one whitespace byte separates the header from pixel data.
	if _, err := br.ReadByte(); err != nil {
		return imaging.Image{}, fmt.Errorf("sequenceio: reading ppm header terminator: %w", err)
	}

	info := imaging.Info{Width: width, Height: height, PixelType: imaging.PixelTypeRGB_U8}
	data := make([]byte, info.DataSize())
	if _, err := io.ReadFull(br, data); err != nil {
		return imaging.Image{}, fmt.Errorf("sequenceio: reading ppm pixel data: %w", err)
	}

	return imaging.New(info, data), nil
}

// readToken reads one whitespace-delimited token, skipping '#' comment
// lines, per the netpbm header grammar.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			if _, err := br.ReadString('\n'); err != nil {
				return "", err
			}
			continue
		}
		if isSpace(b) {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, b)
	}
}

func readInt(br *bufio.Reader) (int, error) {
	tok, err := readToken(br)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

// encodePPM writes img as a binary PPM (P6), used by the write side of this
// plugin for round-tripping test fixtures.
func encodePPM(w io.Writer, info imaging.Info, data []byte) error {
	if info.PixelType != imaging.PixelTypeRGB_U8 {
		return fmt.Errorf("sequenceio: ppm encoder only supports RGB_U8, got %v", info.PixelType)
	}
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", info.Width, info.Height); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}
