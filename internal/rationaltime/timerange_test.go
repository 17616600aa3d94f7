package rationaltime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeEndInclusive(t *testing.T) {
	r := NewRange(New(0, 24), New(24, 24))
	assert.Equal(t, New(24, 24), r.End())
	assert.Equal(t, New(23, 24), r.EndInclusive())
}

func TestRangeContainsHalfOpen(t *testing.T) {
	r := NewRange(New(0, 24), New(24, 24))
	assert.True(t, r.Contains(New(0, 24)))
	assert.True(t, r.Contains(New(23, 24)))
	assert.False(t, r.Contains(New(24, 24)))
}

func TestRangeNegativeDurationClamped(t *testing.T) {
	r := NewRange(New(0, 24), New(-5, 24))
	assert.Equal(t, 0.0, r.Duration.Value)
}

func TestRangeIntersect(t *testing.T) {
	a := NewRange(New(0, 24), New(24, 24))
	b := NewRange(New(12, 24), New(24, 24))
	i, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, New(12, 24), i.Start)
	assert.Equal(t, New(12, 24), i.Duration)

	c := NewRange(New(100, 24), New(5, 24))
	_, ok = a.Intersect(c)
	assert.False(t, ok)
}

func TestRangeSecondBuckets(t *testing.T) {
	r := NewRange(New(0, 24), New(48, 24)) // 2 seconds at 24fps
	buckets := r.SecondBuckets()
	require.Len(t, buckets, 2)
	assert.Equal(t, New(0, 24), buckets[0].Start)
	assert.Equal(t, New(24, 24), buckets[1].Start)

	// No gaps/overlaps between consecutive buckets.
	assert.True(t, TimeEquals(buckets[0].End(), buckets[1].Start))
}

func TestRangeClampTime(t *testing.T) {
	r := NewRange(New(10, 24), New(10, 24)) // [10,20)
	assert.Equal(t, New(10, 24), r.ClampTime(New(0, 24)))
	assert.Equal(t, New(19, 24), r.ClampTime(New(100, 24)))
}
