// Package fifo implements the task FIFO (C4): an ordered sequence of
// worker handles plus a lookup by id, with a bounded active window.
package fifo

import (
	"sync"

	"icc.tech/aptaskd/internal/handle"
)

// FIFO is the ordered collection of worker handles. The first numProcs ids
// in insertion order form the active window; the rest are queued.
// Insertion is always at the tail; removal may target an arbitrary id.
type FIFO struct {
	mu       sync.Mutex
	order    []uint64
	lookup   map[uint64]*handle.Handle
	nextID   uint64
	numProcs int
}

// New creates an empty FIFO with the given active-window size.
func New(numProcs int) *FIFO {
	if numProcs < 1 {
		numProcs = 1
	}
	return &FIFO{
		lookup:   make(map[uint64]*handle.Handle),
		numProcs: numProcs,
	}
}

// Add assigns the next monotonic id, constructs the handle via newHandle,
// and appends it to the tail. Cost: amortized constant.
func (f *FIFO) Add(newHandle func(id uint64) *handle.Handle) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.order = append(f.order, id)
	f.lookup[id] = newHandle(id)
	return id
}

// Get looks up a handle by id.
func (f *FIFO) Get(id uint64) (*handle.Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.lookup[id]
	return h, ok
}

// Remove removes the handle with the given id. Returns the removed handle,
// if any. RemoveHead removes the head of the FIFO.
func (f *FIFO) Remove(id uint64) (*handle.Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(id)
}

// RemoveHead removes and returns the handle at the head of the FIFO.
func (f *FIFO) RemoveHead() (*handle.Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.order) == 0 {
		return nil, false
	}
	return f.remove(f.order[0])
}

func (f *FIFO) remove(id uint64) (*handle.Handle, bool) {
	h, ok := f.lookup[id]
	if !ok {
		return nil, false
	}
	delete(f.lookup, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return h, true
}

// ActiveIDs returns the first numProcs ids in insertion order.
func (f *FIFO) ActiveIDs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.numProcs
	if n > len(f.order) {
		n = len(f.order)
	}
	out := make([]uint64, n)
	copy(out, f.order[:n])
	return out
}

// AllIDs returns every id in insertion order.
func (f *FIFO) AllIDs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint64, len(f.order))
	copy(out, f.order)
	return out
}

// Iter returns every handle in insertion order, for the scheduler's
// per-tick status drain.
func (f *FIFO) Iter() []*handle.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*handle.Handle, len(f.order))
	for i, id := range f.order {
		out[i] = f.lookup[id]
	}
	return out
}

// Len reports the total number of handles, active and queued.
func (f *FIFO) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// Position reports an id's index within insertion order, or -1 if absent.
func (f *FIFO) Position(id uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.order {
		if existing == id {
			return i
		}
	}
	return -1
}
