package timelineengine

import (
	"github.com/timelineio/tlplay/internal/imaging"
	"github.com/timelineio/tlplay/internal/otio"
	"github.com/timelineio/tlplay/internal/pcm"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// VideoLayer is one composited layer of a VideoData: a plain image, a
// dissolve pair (ImageB set, alongside Value in [0,1]), or a gap (both
// images null).
type VideoLayer struct {
	Track      int
	ImageA     imaging.Image
	ImageB     imaging.Image
	Transition otio.TransitionType
	Value      float64
}

// VideoData is the result of GetVideo: every layer at composition time
// Time, in ascending track order (track 0 is the bottom layer).
type VideoData struct {
	Time   rationaltime.Time
	Layers []VideoLayer
}

// AudioLayer is one track's PCM contribution to an AudioData, concatenated
// gap-free and overlap-free across its composition range.
type AudioLayer struct {
	Track int
	Block pcm.Block
}

// AudioData is the result of GetAudio: one second of composited audio
// across every audio track.
type AudioData struct {
	Range  rationaltime.Range
	Layers []AudioLayer
}
