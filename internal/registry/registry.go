// Package registry implements the routine index: the set of named routines
// the host can introspect at startup and the worker can construct by name.
//
// Grounded on the teacher's internal/plugin package: a name-keyed map
// guarded by a mutex, registered either at compile time (routines call
// Register from their own init()) or discovered at startup from a
// directory of shared objects.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"icc.tech/aptaskd/internal/routine"
)

// Registry holds every routine Descriptor known to the process.
type Registry struct {
	mu    sync.RWMutex
	descs map[string]routine.Descriptor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{descs: make(map[string]routine.Descriptor)}
}

// global is the process-wide registry routines self-register into from
// their own init(). Mirrors the teacher's package-level singleton pattern
// (plugin.SetRegistry / scheduler.GetScheduler).
var global = New()

// Default returns the process-wide registry.
func Default() *Registry { return global }

// Register adds a routine Descriptor under its own Name. Returns an error
// if the name is already registered or the descriptor is incomplete.
func (r *Registry) Register(d routine.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Name == "" {
		return fmt.Errorf("registry: descriptor has empty name")
	}
	if d.New == nil {
		return fmt.Errorf("registry: routine %q has no factory", d.Name)
	}
	if _, exists := r.descs[d.Name]; exists {
		return fmt.Errorf("registry: routine %q already registered", d.Name)
	}

	r.descs[d.Name] = d
	return nil
}

// Register adds a routine Descriptor to the process-wide default registry.
// Intended to be called from a routine package's init().
func Register(d routine.Descriptor) error {
	return global.Register(d)
}

// Get looks up a routine by name.
func (r *Registry) Get(name string) (routine.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name]
	return d, ok
}

// Index returns every registered Descriptor sorted by name — the shape the
// manager's "index" request reports.
func (r *Registry) Index() []routine.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]routine.Descriptor, 0, len(r.descs))
	for _, d := range r.descs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
