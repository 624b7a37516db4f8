package timing

import (
	"sync"

	"displaycode-go/errcode"
)

// Registry maps hardware node identifiers to registered capabilities.
// It is safe for concurrent register/unregister/find from arbitrary
// goroutines between Init and Shutdown. Entries are kept in insertion
// order; Find returns the first match, which with unique identifiers is a
// plain set lookup.
type Registry struct {
	mu          sync.Mutex
	entries     []*Capability
	initialized bool
}

// NewRegistry returns an uninitialized registry. Callers that want an
// isolated instance (tests, multiple independent stacks) use this and call
// Init themselves; peripheral drivers normally go through Default.
func NewRegistry() *Registry { return &Registry{} }

// Init transitions the registry to initialized. Idempotent.
func (r *Registry) Init() {
	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
}

// Shutdown tears the registry down, dropping all links. No-op when
// already uninitialized.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.initialized {
		r.entries = nil
		r.initialized = false
	}
	r.mu.Unlock()
}

// Register makes cap visible to subsequent lookups. A nil capability or an
// empty node identifier is InvalidArgument; an uninitialized registry is
// NotReady. Registering a node that is already live is a caller error the
// registry does not defend against: both entries are kept, lookups return
// the first.
func (r *Registry) Register(cap *Capability) error {
	if cap == nil || cap.Node == "" {
		return errcode.InvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return errcode.NotReady
	}
	r.entries = append(r.entries, cap)
	return nil
}

// Unregister removes cap. Removal is idempotent: a nil capability, an
// uninitialized registry, or a capability that was never registered are
// all quiet no-ops.
func (r *Registry) Unregister(cap *Capability) {
	if cap == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return
	}
	for i, e := range r.entries {
		if e == cap {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Find returns the capability registered for node. Both an uninitialized
// registry and a missing entry return DeferProbe: the peripheral may simply
// not have probed yet, and the caller is expected to retry later.
func (r *Registry) Find(node string) (*Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil, errcode.DeferProbe
	}
	for _, e := range r.entries {
		if e.Node == node {
			return e, nil
		}
	}
	return nil, errcode.DeferProbe
}

var def = NewRegistry()

// Default returns the process-wide registry instance. It still needs an
// explicit Init at startup.
func Default() *Registry { return def }
