package otio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelineio/tlplay/internal/mediapath"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

func twoClipTrack(rate float64) *Track {
	track := &Track{Kind: KindVideo}
	for i := 0; i < 2; i++ {
		clip := &Clip{
			Name: "clip",
			MediaReference: MediaReference{
				Kind: MediaReferenceImageSequence,
				Path: mediapath.NewSequence("", "TimelineTest.", 0, ".ppm"),
			},
			SourceRange: rationaltime.NewRange(rationaltime.New(0, rate), rationaltime.New(24, rate)),
			Parent:      track,
		}
		track.Children = append(track.Children, clip)
	}
	return track
}

func TestTimelineDurationTwoClips(t *testing.T) {
	track := twoClipTrack(24)
	stack := &Stack{Children: []Child{track}}
	track.Parent = stack
	tl := &Timeline{Rate: 24, Tracks: stack}

	assert.Equal(t, rationaltime.New(48, 24), tl.Duration())
}

func TestTrimmedRangeOfChild(t *testing.T) {
	track := twoClipTrack(24)
	clip0 := track.Children[0].(*Clip)
	clip1 := track.Children[1].(*Clip)

	r0, ok := TrimmedRangeOfChild(track, clip0, 24)
	require.True(t, ok)
	assert.Equal(t, rationaltime.New(0, 24), r0.Start)

	r1, ok := TrimmedRangeOfChild(track, clip1, 24)
	require.True(t, ok)
	assert.Equal(t, rationaltime.New(24, 24), r1.Start)
}

func TestTransitionContributesZeroOffset(t *testing.T) {
	track := &Track{Kind: KindVideo}
	clipA := &Clip{SourceRange: rationaltime.NewRange(rationaltime.New(0, 24), rationaltime.New(24, 24))}
	trans := &Transition{Type: TransitionDissolve, HalfDuration: rationaltime.New(6, 24)}
	clipB := &Clip{SourceRange: rationaltime.NewRange(rationaltime.New(0, 24), rationaltime.New(24, 24))}
	track.Children = []Child{clipA, trans, clipB}

	rb, ok := TrimmedRangeOfChild(track, clipB, 24)
	require.True(t, ok)
	assert.Equal(t, rationaltime.New(24, 24), rb.Start, "transition must not add track length")
}

func TestToTransition(t *testing.T) {
	assert.Equal(t, TransitionDissolve, ToTransition("SMPTE_Dissolve"))
	assert.Equal(t, TransitionNone, ToTransition(""))
	assert.Equal(t, TransitionNone, ToTransition("unknown"))
}

func TestNestedStackDuration(t *testing.T) {
	inner := twoClipTrack(24)
	innerStack := &Stack{Children: []Child{inner}}
	inner.Parent = innerStack

	outerTrack := &Track{Kind: KindVideo, Children: []Child{innerStack}}
	innerStack.Parent = outerTrack
	outerStack := &Stack{Children: []Child{outerTrack}}

	tl := &Timeline{Rate: 24, Tracks: outerStack}
	assert.Equal(t, rationaltime.New(48, 24), tl.Duration())
}
