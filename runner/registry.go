package runner

import "sync"

// Registry maps an application name to a factory producing a fresh,
// zero-valued execution object for that application. Go has no runtime
// equivalent of importing an arbitrary module by URL and instantiating a
// class from it (§4.6's "made importable at runtime"); the idiomatic
// substitute is a compiled registry the host binary populates at startup —
// see DESIGN.md for the redesign rationale. The generic runner service
// decodes the wire-carried execution object state into whatever the
// registered factory returns.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() any
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() any)}
}

// Register binds application name to factory. Registering the same name
// twice overwrites the previous binding.
func (r *Registry) Register(name string, factory func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// New instantiates a fresh execution object for name, or reports false if
// nothing is registered under it.
func (r *Registry) New(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}
