package carrier

import (
	"fmt"
	"sync"
)

// Registry holds the set of carriers configured at process start. It is
// constructed explicitly and passed to consumers; there is no global
// instance. Registration order is preserved because cross-carrier tracking
// probes carriers in the order they were registered.
type Registry struct {
	mu       sync.RWMutex
	carriers map[string]Carrier
	order    []string
}

// NewRegistry creates an empty carrier registry.
func NewRegistry() *Registry {
	return &Registry{carriers: make(map[string]Carrier)}
}

// Register adds a carrier under its id. Re-registering an id replaces the
// previous carrier but keeps its original position.
func (r *Registry) Register(c Carrier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := c.ID()
	if _, exists := r.carriers[id]; !exists {
		r.order = append(r.order, id)
	}
	r.carriers[id] = c
}

// Get returns a carrier by id.
func (r *Registry) Get(id string) (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.carriers[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, id)
}

// Has reports whether a carrier id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.carriers[id]
	return ok
}

// All returns every registered carrier in registration order.
func (r *Registry) All() []Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Carrier, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.carriers[id])
	}
	return result
}

// Infos returns (id, name, services) for every registered carrier, in
// registration order, for discovery surfaces.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		c := r.carriers[id]
		infos = append(infos, Info{ID: c.ID(), Name: c.Name(), Services: c.Services()})
	}
	return infos
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carriers)
}
