package otio

import "github.com/timelineio/tlplay/internal/rationaltime"

// TransitionType is the resolved transition shape a VideoLayer can carry.
// Transition kinds beyond Dissolve are enumerated in OTIO but left
// unimplemented here, by design: ToTransition treats
// anything it does not recognize as None-equivalent.
type TransitionType int

const (
	TransitionNone TransitionType = iota
	TransitionDissolve
)

func (t TransitionType) String() string {
	switch t {
	case TransitionDissolve:
		return "Dissolve"
	default:
		return "None"
	}
}

// ToTransition maps an OTIO transition_type string to a TransitionType.
func ToTransition(transitionType string) TransitionType {
	switch transitionType {
	case "SMPTE_Dissolve":
		return TransitionDissolve
	default:
		return TransitionNone
	}
}

// Transition sits between two adjacent clips in a Track, dissolving from
// the preceding clip (A) to the following clip (B). HalfDuration is the
// offset on either side of the cut point during which both A and B are
// read; it is symmetric in this engine (a "half-duration d" split).
type Transition struct {
	Name         string
	Type         TransitionType
	HalfDuration rationaltime.Time
	Parent       *Track
}

func (*Transition) isChild() {}
