// Package timesync estimates remote time from a free-running local counter.
//
// Round-trip timing exchanges produce samples of (local send counter, remote
// receive time, remote send time, local receive counter). The samples feed a
// two-state Kalman filter that tracks the time offset and the clock scale
// (counter period), weighting each measurement by the observed one-way delay
// and a 10 ppb process noise model.
//
// The relationship between the counter and remote time is:
//
//	t = time_offset + scale * (counter - counter_offset)
//
// The offsets are rebased on every filter commit so the floating-point work
// stays near zero. This preserves precision across arbitrary counter
// frequencies and long uptimes; computing raw absolute values instead would
// degrade below microsecond accuracy within hours.
//
// Time values use the Q34.30 fixed-point representation of package timeq.
package timesync
