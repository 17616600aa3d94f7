// Package otio is the read-only, in-memory edit-decision-list object model:
// Timeline -> Stack -> Tracks -> Clips/Gaps/Transitions. It is the "loader
// output" the spec assumes is available; internal/otio/loader.go supplies a
// small JSON decoder for a real OpenTimelineIO-shaped file so the engine can
// be exercised without a dependency on the C++ OpenTimelineIO library.
//
// Children hold a non-owning back-reference to their parent Track, and
// Tracks to their parent Stack, per the "keep parent links as non-owning
// back-references" design note: the arena is the Timeline itself, and its
// lifetime encloses every item reachable from it.
package otio

import "github.com/timelineio/tlplay/internal/rationaltime"

// Kind distinguishes video and audio tracks.
type Kind string

const (
	KindVideo Kind = "Video"
	KindAudio Kind = "Audio"
)

// Child is implemented by every item a Track or Stack can hold: Clip, Gap,
// Transition, or a nested Stack (a sub-composition standing in where a
// single item would otherwise go).
type Child interface {
	isChild()
}

// Track is an ordered list of Clips, Gaps, and Transitions of one Kind.
type Track struct {
	Name     string
	Kind     Kind
	Children []Child
	Parent   *Stack
}

func (*Track) isChild() {}

// Stack is an ordered collection of Tracks (or, for nested compositions,
// further Stacks) that play in parallel.
type Stack struct {
	Name     string
	Children []Child
	Parent   *Track
}

func (*Stack) isChild() {}

// Timeline is the top-level container: a Stack plus presentation metadata.
type Timeline struct {
	Name            string
	Rate            float64
	GlobalStartTime rationaltime.Time
	Tracks          *Stack
}

// childDuration returns the composition-time length a child contributes to
// its owning Track's running offset, rescaled to rate. Transitions
// contribute zero: their dissolve window overlaps the surrounding clips
// rather than occupying track length of its own.
func childDuration(c Child, rate float64) rationaltime.Time {
	switch v := c.(type) {
	case *Clip:
		return v.SourceRange.Duration.Rescaled(rate)
	case *Gap:
		return v.SourceRange.Duration.Rescaled(rate)
	case *Transition:
		return rationaltime.New(0, rate)
	case *Stack:
		return v.Duration(rate)
	default:
		return rationaltime.New(0, rate)
	}
}

// trackDuration sums a Track's children's durations at rate.
func trackDuration(t *Track, rate float64) rationaltime.Time {
	total := rationaltime.New(0, rate)
	for _, c := range t.Children {
		total = total.Add(childDuration(c, rate))
	}
	return total
}

// Duration returns a Stack's duration: the longest of its direct Track
// children (Stacks run their Tracks in parallel), recursing into nested
// Stacks.
func (s *Stack) Duration(rate float64) rationaltime.Time {
	max := rationaltime.New(0, rate)
	for _, c := range s.Children {
		if tr, ok := c.(*Track); ok {
			if d := trackDuration(tr, rate); d.After(max) {
				max = d
			}
		}
	}
	return max
}

// TracksOfKind returns the Stack's direct Track children of the given kind,
// in order.
func (s *Stack) TracksOfKind(kind Kind) []*Track {
	var out []*Track
	for _, c := range s.Children {
		if tr, ok := c.(*Track); ok && tr.Kind == kind {
			out = append(out, tr)
		}
	}
	return out
}

// Duration returns the timeline's duration: the duration of its video
// tracks, or its audio tracks if it has no video, matching the original
// "duration of all tracks of the same kind" behavior.
func (tl *Timeline) Duration() rationaltime.Time {
	if len(tl.Tracks.TracksOfKind(KindVideo)) > 0 {
		return durationOfKind(tl.Tracks, KindVideo, tl.Rate)
	}
	return durationOfKind(tl.Tracks, KindAudio, tl.Rate)
}

func durationOfKind(s *Stack, kind Kind, rate float64) rationaltime.Time {
	max := rationaltime.New(0, rate)
	for _, tr := range s.TracksOfKind(kind) {
		if d := trackDuration(tr, rate); d.After(max) {
			max = d
		}
	}
	return max
}

// TrimmedRangeOfChild returns a child's range in composition time: its
// start is the sum of the durations of the children preceding it in the
// same Track, and its duration is its own. Reports false if child does not
// belong to track.
func TrimmedRangeOfChild(track *Track, child Child, rate float64) (rationaltime.Range, bool) {
	offset := rationaltime.New(0, rate)
	for _, c := range track.Children {
		dur := childDuration(c, rate)
		if c == child {
			return rationaltime.NewRange(offset, dur), true
		}
		offset = offset.Add(dur)
	}
	return rationaltime.Range{}, false
}

// ChildRange pairs a Track child with its composition-time range.
type ChildRange struct {
	Child Child
	Range rationaltime.Range
}

// TrackChildrenRanges returns every child of track alongside its
// composition-time range, in order — the basis the Composition Resolver
// walks to find what covers a given time.
func TrackChildrenRanges(track *Track, rate float64) []ChildRange {
	out := make([]ChildRange, 0, len(track.Children))
	offset := rationaltime.New(0, rate)
	for _, c := range track.Children {
		dur := childDuration(c, rate)
		out = append(out, ChildRange{Child: c, Range: rationaltime.NewRange(offset, dur)})
		offset = offset.Add(dur)
	}
	return out
}
