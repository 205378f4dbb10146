package transport

import (
	"sync/atomic"
)

// Metrics contains atomic metrics for a transport instance.
// Metrics can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// SendCount indicates the number of messages forwarded to the lower
	// layer.
	SendCount atomic.Uint64
	// RecvCount indicates the number of messages dispatched to a port
	// handler, including the default handler.
	RecvCount atomic.Uint64
	// DropCount indicates the number of received messages dropped because
	// no handler was registered.
	DropCount atomic.Uint64
	// EventCount indicates the number of data link events fanned out.
	EventCount atomic.Uint64
}

// Counters returns a snapshot of the metrics for telemetry export.
func (m *Metrics) Counters() map[string]uint64 {
	return map[string]uint64{
		"send_count":  m.SendCount.Load(),
		"recv_count":  m.RecvCount.Load(),
		"drop_count":  m.DropCount.Load(),
		"event_count": m.EventCount.Load(),
	}
}
