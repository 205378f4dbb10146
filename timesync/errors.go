package timesync

import "errors"

var (
	// ErrInvalidFrequency indicates that a zero counter frequency was
	// provided.
	ErrInvalidFrequency = errors.New("invalid counter frequency, should be > 0")

	// ErrNilCounter indicates that no counter function was provided.
	ErrNilCounter = errors.New("counter function is nil")
)
