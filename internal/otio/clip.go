package otio

import (
	"github.com/timelineio/tlplay/internal/mediapath"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// ReferenceKind distinguishes the media reference shapes a loader can
// produce. A loader invariant is that every Clip resolves to a
// Path; MediaReferenceMissing is reserved for a reference the loader could
// not resolve, which the resolver treats as an unopenable clip.
type ReferenceKind int

const (
	MediaReferenceMissing ReferenceKind = iota
	MediaReferenceExternal
	MediaReferenceImageSequence
)

// MediaReference names the external asset a Clip reads from.
type MediaReference struct {
	Kind ReferenceKind
	// Path is the resolved asset locator: a single file for
	// MediaReferenceExternal, or a sequence Path for
	// MediaReferenceImageSequence.
	Path mediapath.Path
	// AvailableRange is the media's own available range in its native
	// rate, when known. A zero Rate means "unknown media rate". The
	// composition resolver does not read this field; Clip.MediaTime falls
	// back to the composition time's rate when SourceRange has no positive
	// rate.
	AvailableRange rationaltime.Range
}

// Clip references a contiguous range of an external asset.
type Clip struct {
	Name           string
	MediaReference MediaReference
	// SourceRange is the portion of the media played, in the media's own
	// time (or the timeline's rate, if the media rate is unknown).
	SourceRange rationaltime.Range
	Parent      *Track
}

func (*Clip) isChild() {}

// MediaTime maps a composition time inside this clip's trimmed range to the
// clip's media time.
func (c *Clip) MediaTime(compositionTime, clipStartInComposition rationaltime.Time) rationaltime.Time {
	rate := c.SourceRange.Start.Rate
	if rate <= 0 {
		rate = compositionTime.Rate
	}
	delta := compositionTime.Sub(clipStartInComposition).Rescaled(rate)
	return c.SourceRange.Start.Add(delta)
}

// Gap is a composition-time span with no source media; the resolver emits
// no read for it and the caller fills the layer slot with a solid color.
type Gap struct {
	Name        string
	SourceRange rationaltime.Range
	Parent      *Track
}

func (*Gap) isChild() {}
