package composition

import (
	"github.com/timelineio/tlplay/internal/otio"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// ResolveAudio produces the audio ReadPlan for a composition range,
// splitting it into per-track segments wherever a clip or gap boundary
// falls inside the range, per the "intersected with each audio
// clip" rule for get_audio.
func ResolveAudio(tl *otio.Timeline, compRange rationaltime.Range) []AudioLayer {
	rate := tl.Rate
	tracks := tl.Tracks.TracksOfKind(otio.KindAudio)
	layers := make([]AudioLayer, 0, len(tracks))
	for i, tr := range tracks {
		layers = append(layers, AudioLayer{
			Track:    i,
			Segments: resolveTrackAudio(tr, compRange, rate),
		})
	}
	return layers
}

func resolveTrackAudio(tr *otio.Track, compRange rationaltime.Range, rate float64) []AudioSegment {
	var segments []AudioSegment
	for _, cr := range otio.TrackChildrenRanges(tr, rate) {
		overlap, ok := cr.Range.Intersect(compRange)
		if !ok {
			continue
		}
		switch v := cr.Child.(type) {
		case *otio.Clip:
			mediaStart := v.MediaTime(overlap.Start, cr.Range.Start)
			segments = append(segments, AudioSegment{
				Path:       v.MediaReference.Path.String(),
				CompRange:  overlap,
				MediaRange: rationaltime.NewRange(mediaStart, overlap.Duration),
			})
		case *otio.Gap:
			segments = append(segments, AudioSegment{Gap: true, CompRange: overlap})
		case *otio.Stack:
			localRange := rationaltime.NewRange(overlap.Start.Sub(cr.Range.Start), overlap.Duration)
			for _, nested := range resolveNestedStackAudio(v, localRange, rate) {
				nested.CompRange = rationaltime.NewRange(nested.CompRange.Start.Add(cr.Range.Start), nested.CompRange.Duration)
				segments = append(segments, nested)
			}
		}
	}
	return segments
}

func resolveNestedStackAudio(s *otio.Stack, localRange rationaltime.Range, rate float64) []AudioSegment {
	tracks := s.TracksOfKind(otio.KindAudio)
	if len(tracks) == 0 {
		return nil
	}
	// Nested stacks composite their audio tracks in parallel; the resolver
	// takes the topmost track's contribution, mirroring the video
	// resolver's depth-first "first composable wins" rule.
	return resolveTrackAudio(tracks[len(tracks)-1], localRange, rate)
}
