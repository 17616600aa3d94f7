// Package rationaltime implements rational-number time arithmetic used
// throughout the timeline engine: a time is a value counted at a rate,
// never a floating-point second count.
package rationaltime

import (
	"fmt"
	"math"
)

// Time is a rational time value: value/rate seconds, e.g. (24, 24) == 1s.
type Time struct {
	Value float64
	Rate  float64
}

// Invalid is the sentinel distinct from, and never equal to, any valid Time.
var Invalid = Time{Value: math.Inf(1), Rate: -1}

// New constructs a Time at the given rate. Rate must be > 0; callers that
// pass a non-positive rate get the Invalid sentinel back.
func New(value, rate float64) Time {
	if rate <= 0 {
		return Invalid
	}
	return Time{Value: value, Rate: rate}
}

// FromSeconds constructs a Time representing the given number of seconds at rate.
func FromSeconds(seconds, rate float64) Time {
	return New(seconds*rate, rate)
}

// IsInvalid reports whether t is the Invalid sentinel.
func (t Time) IsInvalid() bool {
	return t == Invalid
}

// IsValid reports whether t is not the Invalid sentinel.
func (t Time) IsValid() bool {
	return !t.IsInvalid()
}

// String renders t as "value/rate" frames plus the equivalent seconds, the
// form a CLI or log line wants rather than the bare struct dump.
func (t Time) String() string {
	if t.IsInvalid() {
		return "invalid"
	}
	return fmt.Sprintf("%g/%g (%.3fs)", t.Value, t.Rate, t.Seconds())
}

// Seconds returns the time in seconds.
func (t Time) Seconds() float64 {
	if t.Rate == 0 {
		return 0
	}
	return t.Value / t.Rate
}

// Rescaled returns an equivalent Time at a new rate.
func (t Time) Rescaled(rate float64) Time {
	if t.IsInvalid() || rate <= 0 {
		return Invalid
	}
	if t.Rate == rate {
		return t
	}
	return Time{Value: t.Value * rate / t.Rate, Rate: rate}
}

// Equal is bitwise equality on (Value, Rate): two times at different rates
// are never Equal even if they denote the same instant. Use TimeEquals for
// that comparison.
func (t Time) Equal(o Time) bool {
	return t.Value == o.Value && t.Rate == o.Rate
}

// TimeEquals compares two times for equality after rescaling the second to
// the first's rate.
func TimeEquals(a, b Time) bool {
	if a.IsInvalid() || b.IsInvalid() {
		return a.IsInvalid() && b.IsInvalid()
	}
	return a.Value == b.Rescaled(a.Rate).Value
}

// Add returns a+b, rescaled to a's rate.
func (t Time) Add(o Time) Time {
	if t.IsInvalid() || o.IsInvalid() {
		return Invalid
	}
	r := o.Rescaled(t.Rate)
	return Time{Value: t.Value + r.Value, Rate: t.Rate}
}

// Sub returns t-o, rescaled to t's rate.
func (t Time) Sub(o Time) Time {
	if t.IsInvalid() || o.IsInvalid() {
		return Invalid
	}
	r := o.Rescaled(t.Rate)
	return Time{Value: t.Value - r.Value, Rate: t.Rate}
}

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater than o,
// after rescaling o to t's rate.
func (t Time) Compare(o Time) int {
	r := o.Rescaled(t.Rate)
	switch {
	case t.Value < r.Value:
		return -1
	case t.Value > r.Value:
		return 1
	default:
		return 0
	}
}

// Before reports whether t < o.
func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }

// After reports whether t > o.
func (t Time) After(o Time) bool { return t.Compare(o) > 0 }

// OneTick returns a Time of one tick's duration at the given rate.
func OneTick(rate float64) Time {
	return New(1, rate)
}

// Floor returns t with Value rounded down to the nearest integer frame.
func (t Time) Floor() Time {
	return Time{Value: math.Floor(t.Value), Rate: t.Rate}
}

// Round returns t with Value rounded to the nearest integer frame.
func (t Time) Round() Time {
	return Time{Value: math.Round(t.Value), Rate: t.Rate}
}
