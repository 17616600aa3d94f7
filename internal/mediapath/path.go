// Package mediapath implements the opaque asset locator used throughout the
// engine: a directory, a base name, an optional numeric sequence field, and
// an extension. It does not touch the filesystem itself — readers decide
// how to open what a Path names.
package mediapath

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// sequencePattern matches a concrete file name whose stem ends in a decimal
// frame number, e.g. "TimelineTest.0001.ppm" (base "TimelineTest.", frame
// 1, padding 4). The Path itself stores the directory, base
// (without the numeric field), the zero-pad width observed when parsed, and
// the extension; Get(frame) reconstructs a concrete per-frame name.
var sequencePattern = regexp.MustCompile(`^(.*?)(\d+)(\.[^.]*)?$`)

// Path is an opaque asset locator.
type Path struct {
	dir       string
	base      string // name without numeric field or extension
	padding   int    // zero-pad width; 0 means no padding
	isSeq     bool
	ext       string // includes leading dot, e.g. ".ppm"
	raw       string // original, non-sequence path as given
}

// New parses a plain (non-sequence) file path.
func New(p string) Path {
	dir, file := filepath.Split(p)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return Path{dir: dir, base: base, ext: ext, raw: p}
}

// NewSequence constructs a Path for a numbered image sequence given a
// directory, the base name preceding the frame number, the zero-pad width,
// and the extension (with leading dot).
func NewSequence(dir, base string, padding int, ext string) Path {
	return Path{dir: dir, base: base, padding: padding, ext: ext, isSeq: true}
}

// ParseSequence attempts to parse a concrete sequence member path (e.g.
// "/a/TimelineTest.0001.ppm") into a sequence Path, reporting the parsed
// frame number alongside it.
func ParseSequence(p string) (Path, int, bool) {
	dir, file := filepath.Split(p)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	m := sequencePattern.FindStringSubmatch(file)
	if m == nil {
		return Path{}, 0, false
	}
	numStr := m[2]
	frame, err := strconv.Atoi(numStr)
	if err != nil {
		return Path{}, 0, false
	}
	base := strings.TrimSuffix(stem, numStr)
	return Path{dir: dir, base: base, padding: len(numStr), ext: ext, isSeq: true}, frame, true
}

// IsSequence reports whether this Path denotes a numbered image sequence.
func (p Path) IsSequence() bool { return p.isSeq }

// Get returns the concrete file path for the given frame number. If pad is
// non-zero it overrides the Path's stored padding width. For a non-sequence
// Path, frame and pad are ignored and the original path is returned.
func (p Path) Get(frame int, pad int) string {
	if !p.isSeq {
		if p.raw != "" {
			return p.raw
		}
		return filepath.Join(p.dir, p.base+p.ext)
	}
	width := p.padding
	if pad > 0 {
		width = pad
	}
	numStr := strconv.Itoa(frame)
	if width > len(numStr) {
		numStr = strings.Repeat("0", width-len(numStr)) + numStr
	}
	return filepath.Join(p.dir, p.base+numStr+p.ext)
}

// Directory returns the Path's directory component, with trailing separator.
func (p Path) Directory() string { return p.dir }

// BaseName returns the Path's name without extension or numeric field.
func (p Path) BaseName() string { return p.base }

// Extension returns the Path's extension, lower-cased, including the
// leading dot (e.g. ".mov"); empty string if there is none.
func (p Path) Extension() string { return strings.ToLower(p.ext) }

// Padding returns the zero-pad width for a sequence Path, or 0.
func (p Path) Padding() int { return p.padding }

// String renders the Path the way it would be displayed in logs: the
// sequence token if this is a sequence, or the plain path otherwise.
func (p Path) String() string {
	if !p.isSeq {
		return p.Get(0, 0)
	}
	return filepath.Join(p.dir, fmt.Sprintf("%s%%0%dd%s", p.base, p.padding, p.ext))
}
