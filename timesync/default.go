package timesync

import "sync/atomic"

// defaultSync holds the process-wide default instance. The first instance
// created claims the slot; Close releases it.
var defaultSync atomic.Pointer[Sync]

// Default returns the process-wide default instance, or nil if none exists.
func Default() *Sync {
	return defaultSync.Load()
}

// Time returns the current remote time estimate from the default instance
// in timeq ticks. It returns 0 if no default instance exists.
func Time() int64 {
	s := defaultSync.Load()
	if s == nil {
		return 0
	}
	return s.Time()
}
