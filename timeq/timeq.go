// Package timeq provides the 64-bit fixed-point time representation used
// across the link stack.
//
// Time values are signed Q34.30 fixed-point seconds: the upper 34 bits hold
// whole seconds and the lower 30 bits hold the fraction, giving roughly
// 1 ns resolution over a ±272-year span. The representation is cheap to
// add, subtract, and compare on 32-bit targets, which is why the wire
// protocol and the time-synchronization filter exchange it rather than
// nanosecond counts.
package timeq

import "time"

// Q is the number of fractional bits.
const Q = 30

// Fixed-point durations in Q34.30 seconds.
const (
	// Second is one second.
	Second int64 = 1 << Q

	// Millisecond is one thousandth of a second, rounded.
	Millisecond = (Second + 500) / 1000

	// Microsecond is one millionth of a second, rounded.
	Microsecond = (Second + 500000) / 1000000

	// Minute is 60 seconds.
	Minute = Second * 60

	// Hour is 60 minutes.
	Hour = Minute * 60

	// Day is 24 hours.
	Day = Hour * 24
)

// FractMask masks the fractional bits of a time value.
const FractMask = Second - 1

// ToFloat64 converts a Q34.30 time to floating-point seconds.
func ToFloat64(t int64) float64 {
	return float64(t) * (1.0 / float64(Second))
}

// FromFloat64 converts floating-point seconds to Q34.30, rounding half away
// from zero.
func FromFloat64(seconds float64) int64 {
	v := seconds * float64(Second)
	if v < 0 {
		return int64(v - 0.5)
	}

	return int64(v + 0.5)
}

// ToDuration converts a Q34.30 time to a time.Duration, rounding half away
// from zero.
func ToDuration(t int64) time.Duration {
	if t < 0 {
		return -ToDuration(-t)
	}
	sec := t >> Q
	fract := t & FractMask
	ns := (fract*int64(time.Second) + (1 << (Q - 1))) >> Q

	return time.Duration(sec)*time.Second + time.Duration(ns)
}

// FromDuration converts a time.Duration to Q34.30, rounding half away from
// zero.
func FromDuration(d time.Duration) int64 {
	if d < 0 {
		return -FromDuration(-d)
	}
	sec := int64(d / time.Second)
	rem := int64(d % time.Second)
	fract := (rem<<Q + int64(time.Second)/2) / int64(time.Second)

	return sec<<Q + fract
}
