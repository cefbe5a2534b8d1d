package engine

import (
	"sync"

	"github.com/Paintersrp/warden/internal/runtime"
)

// Registry is the single shared slot holding the companion process this
// supervisor spawned, if any. It is passed explicitly to every trigger
// handler. A nil *Registry behaves as a permanently empty slot.
type Registry struct {
	mu     sync.Mutex
	handle runtime.Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Store installs h, replacing whatever the slot held before.
func (r *Registry) Store(h runtime.Handle) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.handle = h
	r.mu.Unlock()
}

// Take removes and returns the current handle. Once Take has returned a
// handle, no other caller can observe it.
func (r *Registry) Take() (runtime.Handle, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	h := r.handle
	r.handle = nil
	r.mu.Unlock()
	return h, h != nil
}

// Current returns the stored handle without removing it.
func (r *Registry) Current() (runtime.Handle, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle, r.handle != nil
}

// Holds reports whether h is the handle currently stored.
func (r *Registry) Holds(h runtime.Handle) bool {
	cur, ok := r.Current()
	return ok && cur == h
}
