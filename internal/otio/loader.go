package otio

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/timelineio/tlplay/internal/mediapath"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// Load decodes a (deliberately small, OpenTimelineIO-shaped) JSON document
// into a Timeline. Full OTIO file parsing is assumed to live outside this
// engine; this loader exists so the rest of the engine can be built and
// tested against real JSON input without a Go binding for the C++
// OpenTimelineIO library, which does not exist in the example corpus. It
// understands OTIO_SCHEMA-tagged objects for Timeline, Stack, Track, Clip,
// Gap, Transition, ExternalReference, and ImageSequenceReference — the
// subset exercised by this engine's literal test scenarios — and rejects
// anything else with a descriptive error rather than silently ignoring it.
func Load(data []byte) (*Timeline, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("otio: decoding json: %w", err)
	}
	if raw.Schema() != "Timeline.1" {
		return nil, fmt.Errorf("otio: expected Timeline.1 root, got %q", raw.Schema())
	}
	return decodeTimeline(raw)
}

// rawNode is any OTIO_SCHEMA-tagged JSON object, kept as raw fields for
// schema-directed dispatch.
type rawNode map[string]json.RawMessage

func (n rawNode) Schema() string {
	var s string
	if v, ok := n["OTIO_SCHEMA"]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func (n rawNode) str(key string) string {
	var s string
	if v, ok := n[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func (n rawNode) node(key string) (rawNode, bool) {
	v, ok := n[key]
	if !ok {
		return nil, false
	}
	var child rawNode
	if err := json.Unmarshal(v, &child); err != nil {
		return nil, false
	}
	return child, true
}

func (n rawNode) nodes(key string) []rawNode {
	v, ok := n[key]
	if !ok {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(v, &raws); err != nil {
		return nil
	}
	out := make([]rawNode, 0, len(raws))
	for _, r := range raws {
		var child rawNode
		if err := json.Unmarshal(r, &child); err == nil {
			out = append(out, child)
		}
	}
	return out
}

func decodeRationalTime(n rawNode) rationaltime.Time {
	var value, rate float64
	if v, ok := n["value"]; ok {
		_ = json.Unmarshal(v, &value)
	}
	if v, ok := n["rate"]; ok {
		_ = json.Unmarshal(v, &rate)
	}
	return rationaltime.New(value, rate)
}

func decodeTimeRange(n rawNode, fallbackRate float64) rationaltime.Range {
	start := rationaltime.New(0, fallbackRate)
	duration := rationaltime.New(0, fallbackRate)
	if s, ok := n.node("start_time"); ok {
		start = decodeRationalTime(s)
	}
	if d, ok := n.node("duration"); ok {
		duration = decodeRationalTime(d)
	}
	return rationaltime.NewRange(start, duration)
}

func decodeTimeline(raw rawNode) (*Timeline, error) {
	tl := &Timeline{Name: raw.str("name")}
	if gst, ok := raw.node("global_start_time"); ok {
		tl.GlobalStartTime = decodeRationalTime(gst)
		tl.Rate = tl.GlobalStartTime.Rate
	}
	tracksNode, ok := raw.node("tracks")
	if !ok {
		return nil, fmt.Errorf("otio: timeline missing tracks")
	}
	stack, err := decodeStack(tracksNode, nil, &tl.Rate)
	if err != nil {
		return nil, err
	}
	tl.Tracks = stack
	if tl.Rate == 0 {
		tl.Rate = inferRate(stack)
	}
	return tl, nil
}

// inferRate falls back to the rate of the first clip found, for timelines
// whose global_start_time was omitted.
func inferRate(s *Stack) float64 {
	for _, c := range s.Children {
		switch v := c.(type) {
		case *Track:
			for _, tc := range v.Children {
				if clip, ok := tc.(*Clip); ok && clip.SourceRange.Start.Rate > 0 {
					return clip.SourceRange.Start.Rate
				}
			}
		case *Stack:
			if r := inferRate(v); r > 0 {
				return r
			}
		}
	}
	return 24
}

func decodeStack(raw rawNode, parent *Track, rate *float64) (*Stack, error) {
	if raw.Schema() != "Stack.1" {
		return nil, fmt.Errorf("otio: expected Stack.1, got %q", raw.Schema())
	}
	s := &Stack{Name: raw.str("name"), Parent: parent}
	for _, childRaw := range raw.nodes("children") {
		child, err := decodeChild(childRaw, nil, s, rate)
		if err != nil {
			return nil, err
		}
		s.Children = append(s.Children, child)
	}
	return s, nil
}

func decodeChild(raw rawNode, trackParent *Track, stackParent *Stack, rate *float64) (Child, error) {
	switch raw.Schema() {
	case "Track.1":
		return decodeTrack(raw, stackParent, rate)
	case "Stack.1":
		return decodeStack(raw, trackParent, rate)
	case "Clip.1":
		return decodeClip(raw, trackParent, *rate)
	case "Gap.1":
		return decodeGap(raw, trackParent, *rate)
	case "Transition.1":
		return decodeTransition(raw, trackParent, *rate)
	default:
		return nil, fmt.Errorf("otio: unsupported child schema %q", raw.Schema())
	}
}

func decodeTrack(raw rawNode, parent *Stack, rate *float64) (*Track, error) {
	t := &Track{
		Name:   raw.str("name"),
		Kind:   Kind(raw.str("kind")),
		Parent: parent,
	}
	for _, childRaw := range raw.nodes("children") {
		child, err := decodeChild(childRaw, t, nil, rate)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, child)
	}
	return t, nil
}

func decodeClip(raw rawNode, parent *Track, fallbackRate float64) (*Clip, error) {
	c := &Clip{Name: raw.str("name"), Parent: parent}
	if sr, ok := raw.node("source_range"); ok {
		c.SourceRange = decodeTimeRange(sr, fallbackRate)
	}
	if mr, ok := raw.node("media_reference"); ok {
		ref, err := decodeMediaReference(mr, fallbackRate)
		if err != nil {
			return nil, err
		}
		c.MediaReference = ref
	}
	return c, nil
}

func decodeMediaReference(raw rawNode, fallbackRate float64) (MediaReference, error) {
	switch raw.Schema() {
	case "ExternalReference.1":
		url := raw.str("target_url")
		ref := MediaReference{Kind: MediaReferenceExternal, Path: mediapath.New(url)}
		if ar, ok := raw.node("available_range"); ok {
			ref.AvailableRange = decodeTimeRange(ar, fallbackRate)
		}
		return ref, nil
	case "ImageSequenceReference.1":
		dir := raw.str("target_url_base")
		prefix := raw.str("name_prefix")
		suffix := raw.str("name_suffix")
		padding := 0
		if v, ok := raw["frame_zero_padding"]; ok {
			var p float64
			_ = json.Unmarshal(v, &p)
			padding = int(p)
		}
		ext := filepath.Ext(suffix)
		if ext == "" {
			ext = suffix
		}
		path := mediapath.NewSequence(dir, prefix, padding, ext)
		rate := fallbackRate
		if v, ok := raw["rate"]; ok {
			_ = json.Unmarshal(v, &rate)
		}
		ref := MediaReference{Kind: MediaReferenceImageSequence, Path: path}
		if ar, ok := raw.node("available_range"); ok {
			ref.AvailableRange = decodeTimeRange(ar, rate)
		}
		return ref, nil
	case "MissingReference.1", "":
		return MediaReference{Kind: MediaReferenceMissing}, nil
	default:
		return MediaReference{}, fmt.Errorf("otio: unsupported media reference schema %q", raw.Schema())
	}
}

func decodeGap(raw rawNode, parent *Track, fallbackRate float64) (*Gap, error) {
	g := &Gap{Name: raw.str("name"), Parent: parent}
	if sr, ok := raw.node("source_range"); ok {
		g.SourceRange = decodeTimeRange(sr, fallbackRate)
	}
	return g, nil
}

func decodeTransition(raw rawNode, parent *Track, fallbackRate float64) (*Transition, error) {
	tr := &Transition{
		Name:   raw.str("name"),
		Type:   ToTransition(raw.str("transition_type")),
		Parent: parent,
	}
	if io, ok := raw.node("in_offset"); ok {
		tr.HalfDuration = decodeRationalTime(io)
	} else {
		tr.HalfDuration = rationaltime.New(0, fallbackRate)
	}
	return tr, nil
}
