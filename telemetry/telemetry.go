// Package telemetry aggregates counter snapshots from the stack components.
//
// Components expose their atomic metrics through the Source interface and
// register under a unique name. A monitoring loop polls Snapshot to export
// the counters, e.g. as prometheus counters or periodic log lines. The
// registry is safe for concurrent registration and polling.
package telemetry

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrDuplicateSource indicates that a source name is already registered.
var ErrDuplicateSource = errors.New("telemetry source already registered")

// Source provides a point-in-time snapshot of named counters.
type Source interface {
	Counters() map[string]uint64
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() map[string]uint64

func (f SourceFunc) Counters() map[string]uint64 {
	return f()
}

// Registry holds named telemetry sources.
type Registry struct {
	sources *xsync.MapOf[string, Source]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: xsync.NewMapOf[string, Source](),
	}
}

// Register adds a source under a unique name.
func (r *Registry) Register(name string, src Source) error {
	if _, loaded := r.sources.LoadOrStore(name, src); loaded {
		return ErrDuplicateSource
	}
	return nil
}

// Deregister removes a source. Removing an unknown name is a no-op.
func (r *Registry) Deregister(name string) {
	r.sources.Delete(name)
}

// Snapshot polls every registered source and returns the counters keyed by
// source name.
func (r *Registry) Snapshot() map[string]map[string]uint64 {
	out := make(map[string]map[string]uint64, r.sources.Size())
	r.sources.Range(func(name string, src Source) bool {
		out[name] = src.Counters()
		return true
	})
	return out
}
