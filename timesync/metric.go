package timesync

import (
	"sync/atomic"
)

// Metrics contains atomic metrics for a Sync instance.
// Metrics can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// UpdateCount indicates the number of accepted round-trip samples.
	UpdateCount atomic.Uint64
	// RejectCount indicates the number of samples rejected for
	// non-monotonic counters or missing remote time.
	RejectCount atomic.Uint64
	// ResyncCount indicates the number of filter resynchronizations,
	// including divergence guard trips.
	ResyncCount atomic.Uint64
	// OverflowCount indicates the number of FIFO overflows where the oldest
	// unprocessed sample was overwritten.
	OverflowCount atomic.Uint64
}

// Counters returns a snapshot of the metrics for telemetry export.
func (m *Metrics) Counters() map[string]uint64 {
	return map[string]uint64{
		"update_count":   m.UpdateCount.Load(),
		"reject_count":   m.RejectCount.Load(),
		"resync_count":   m.ResyncCount.Load(),
		"overflow_count": m.OverflowCount.Load(),
	}
}
