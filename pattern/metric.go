package pattern

import (
	"sync/atomic"
)

// Metrics contains atomic metrics for a pattern receiver.
// Metrics can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// ReceiveCount indicates the number of words received.
	ReceiveCount atomic.Uint64
	// MissingCount indicates the estimated number of missing words.
	MissingCount atomic.Uint64
	// DuplicateCount indicates the estimated number of duplicated words.
	DuplicateCount atomic.Uint64
	// ErrorCount indicates the number of words that could not be
	// synchronized to the pattern.
	ErrorCount atomic.Uint64
	// ResyncCount indicates the number of times synchronization was lost.
	ResyncCount atomic.Uint64
}

func (m *Metrics) reset() {
	m.ReceiveCount.Store(0)
	m.MissingCount.Store(0)
	m.DuplicateCount.Store(0)
	m.ErrorCount.Store(0)
	m.ResyncCount.Store(0)
}

// Counters returns a snapshot of the metrics for telemetry export.
func (m *Metrics) Counters() map[string]uint64 {
	return map[string]uint64{
		"receive_count":   m.ReceiveCount.Load(),
		"missing_count":   m.MissingCount.Load(),
		"duplicate_count": m.DuplicateCount.Load(),
		"error_count":     m.ErrorCount.Load(),
		"resync_count":    m.ResyncCount.Load(),
	}
}
