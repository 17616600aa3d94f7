package rationaltime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidIsDistinct(t *testing.T) {
	assert.True(t, Invalid.IsInvalid())
	assert.False(t, New(0, 24).IsInvalid())
	assert.NotEqual(t, Invalid, New(0, 24))
}

func TestNewRejectsNonPositiveRate(t *testing.T) {
	assert.True(t, New(1, 0).IsInvalid())
	assert.True(t, New(1, -24).IsInvalid())
}

func TestRescaled(t *testing.T) {
	t24 := New(24, 24) // 1 second
	t48 := t24.Rescaled(48)
	assert.Equal(t, New(48, 48), t48)
	assert.InDelta(t, 1.0, t48.Seconds(), 1e-9)
}

func TestEqualVsTimeEquals(t *testing.T) {
	a := New(24, 24)
	b := New(48, 48)
	assert.False(t, a.Equal(b), "bitwise equal requires same rate")
	assert.True(t, TimeEquals(a, b), "time_equals compares after rescale")
}

func TestArithmeticRescalesToReceiverRate(t *testing.T) {
	a := New(10, 24)
	b := New(24, 48) // 0.5s
	sum := a.Add(b)
	assert.Equal(t, 24.0, sum.Rate)
	assert.InDelta(t, 22.0, sum.Value, 1e-9) // 10 + 12
}

func TestCompare(t *testing.T) {
	a := New(10, 24)
	b := New(11, 24)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(New(20, 48)))
}
