// Package composition implements the Composition Resolver:
// given an EDL and a composition time, it produces a per-kind ReadPlan —
// which paths to read, at which media time, and how dissolve transitions
// blend two clips — without touching the filesystem or any Reader itself.
package composition

import (
	"github.com/timelineio/tlplay/internal/avio"
	"github.com/timelineio/tlplay/internal/otio"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// VideoLayer is one entry of a video ReadPlan: either a gap (no read), a
// single clip read, or a dissolve pair blending clip A into clip B.
type VideoLayer struct {
	Track int
	Gap   bool

	PathA     string
	MediaTimeA rationaltime.Time

	// Transition is TransitionNone for a plain clip layer, or
	// TransitionDissolve when PathB is also populated.
	Transition      otio.TransitionType
	PathB           string
	MediaTimeB      rationaltime.Time
	TransitionValue float64
}

// AudioSegment is one contiguous piece of an AudioLayer's media range: a
// Gap (silence) or a single clip's contribution.
type AudioSegment struct {
	Gap        bool
	Path       string
	CompRange  rationaltime.Range
	MediaRange rationaltime.Range
}

// AudioLayer is one track's contribution to an audio ReadPlan over a
// composition range, potentially split across several segments if clip
// boundaries fall inside the requested range.
type AudioLayer struct {
	Track    int
	Segments []AudioSegment
}

// ResolveVideo produces the video ReadPlan for composition time t, per
// the timeline's stack-over-tracks composition model. Returns avio.ErrOutOfRange if t falls outside
// [0, timeline duration) — note the upper bound is exclusive, so t exactly
// at the end fails.
func ResolveVideo(tl *otio.Timeline, t rationaltime.Time) ([]VideoLayer, error) {
	rate := tl.Rate
	zero := rationaltime.New(0, rate)
	duration := tl.Duration()
	tAtRate := t.Rescaled(rate)
	if tAtRate.Compare(zero) < 0 || tAtRate.Compare(duration) >= 0 {
		return nil, avio.NewReadError(avio.ErrOutOfRange, "", nil)
	}

	tracks := tl.Tracks.TracksOfKind(otio.KindVideo)
	layers := make([]VideoLayer, 0, len(tracks))
	for i, tr := range tracks {
		layer, ok := resolveTrackVideo(tr, tAtRate, rate)
		if !ok {
			continue
		}
		layer.Track = i
		layers = append(layers, layer)
	}
	return layers, nil
}

func resolveTrackVideo(tr *otio.Track, t rationaltime.Time, rate float64) (VideoLayer, bool) {
	ranges := otio.TrackChildrenRanges(tr, rate)

	if layer, ok := findDissolve(ranges, t); ok {
		return layer, true
	}
	return findPlainChild(tr, ranges, t, rate)
}

// findDissolve scans for a Transition child whose dissolve window
// [t_c-d, t_c+d] contains t, where t_c is the (zero-width) composition
// point the transition sits at.
func findDissolve(ranges []otio.ChildRange, t rationaltime.Time) (VideoLayer, bool) {
	for idx, cr := range ranges {
		trans, ok := cr.Child.(*otio.Transition)
		if !ok || trans.Type != otio.TransitionDissolve {
			continue
		}
		tc := cr.Range.Start
		d := trans.HalfDuration
		lo := tc.Sub(d)
		hi := tc.Add(d)
		if t.Compare(lo) < 0 || t.Compare(hi) > 0 {
			continue
		}
		if idx == 0 || idx == len(ranges)-1 {
			continue
		}
		clipA, okA := ranges[idx-1].Child.(*otio.Clip)
		clipB, okB := ranges[idx+1].Child.(*otio.Clip)
		if !okA || !okB {
			continue
		}

		value := transitionValue(t, lo, d)
		return VideoLayer{
			PathA:           clipA.MediaReference.Path.String(),
			MediaTimeA:      clipA.MediaTime(t, ranges[idx-1].Range.Start),
			Transition:      otio.TransitionDissolve,
			PathB:           clipB.MediaReference.Path.String(),
			MediaTimeB:      clipB.MediaTime(t, ranges[idx+1].Range.Start),
			TransitionValue: value,
		}, true
	}
	return VideoLayer{}, false
}

// transitionValue computes (t - (t_c - d)) / (2d), clamped to [0, 1].
func transitionValue(t, lo, halfDuration rationaltime.Time) float64 {
	width := 2 * halfDuration.Seconds()
	if width <= 0 {
		return 0
	}
	v := t.Sub(lo).Seconds() / width
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// findPlainChild applies the half-open containment scan with the Gap
// tie-break rule: at an exact boundary, the later child wins unless it is
// a Gap, in which case the earlier (non-gap) child wins.
func findPlainChild(tr *otio.Track, ranges []otio.ChildRange, t rationaltime.Time, rate float64) (VideoLayer, bool) {
	for idx, cr := range ranges {
		if _, isTrans := cr.Child.(*otio.Transition); isTrans {
			continue
		}
		if !cr.Range.Contains(t) {
			continue
		}
		if _, isGap := cr.Child.(*otio.Gap); isGap {
			if idx > 0 && rationaltime.TimeEquals(t, cr.Range.Start) {
				if prevLayer, ok := asVideoLayer(ranges[idx-1].Child, ranges[idx-1].Range, t, rate); ok {
					return prevLayer, true
				}
			}
			return VideoLayer{Gap: true}, true
		}
		return asVideoLayer(cr.Child, cr.Range, t, rate)
	}
	return VideoLayer{}, false
}

func asVideoLayer(child otio.Child, compRange rationaltime.Range, t rationaltime.Time, rate float64) (VideoLayer, bool) {
	switch v := child.(type) {
	case *otio.Clip:
		return VideoLayer{
			PathA:      v.MediaReference.Path.String(),
			MediaTimeA: v.MediaTime(t, compRange.Start),
		}, true
	case *otio.Gap:
		return VideoLayer{Gap: true}, true
	case *otio.Stack:
		localT := t.Sub(compRange.Start)
		return resolveNestedStack(v, localT, rate)
	default:
		return VideoLayer{}, false
	}
}

// resolveNestedStack picks the topmost (last) video track of a nested Stack
// that covers localT — nested stacks composite their own tracks in
// parallel, so the resolver recurses depth-first.
func resolveNestedStack(s *otio.Stack, localT rationaltime.Time, rate float64) (VideoLayer, bool) {
	tracks := s.TracksOfKind(otio.KindVideo)
	for i := len(tracks) - 1; i >= 0; i-- {
		if layer, ok := resolveTrackVideo(tracks[i], localT, rate); ok {
			return layer, true
		}
	}
	return VideoLayer{}, false
}
