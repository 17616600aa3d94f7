package mediapath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSequence(t *testing.T) {
	p, frame, ok := ParseSequence("/tmp/media/TimelineTest.0001.ppm")
	require.True(t, ok)
	assert.Equal(t, 1, frame)
	assert.True(t, p.IsSequence())
	assert.Equal(t, ".ppm", p.Extension())
	assert.Equal(t, 4, p.Padding())
}

func TestSequenceGetRoundTrips(t *testing.T) {
	p := NewSequence("/tmp/media/", "TimelineTest.", 4, ".ppm")
	assert.Equal(t, "/tmp/media/TimelineTest.0007.ppm", p.Get(7, 0))
	assert.Equal(t, "/tmp/media/TimelineTest.0777.ppm", p.Get(777, 0))
}

func TestSequenceGetOverridePad(t *testing.T) {
	p := NewSequence("", "frame.", 2, ".png")
	assert.Equal(t, "frame.00005.png", p.Get(5, 5))
}

func TestPlainPath(t *testing.T) {
	p := New("/media/movie.mov")
	assert.False(t, p.IsSequence())
	assert.Equal(t, ".mov", p.Extension())
	assert.Equal(t, "/media/movie.mov", p.Get(0, 0))
}
