package permission

import (
	"errors"
	"sync"
)

var (
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("registry frozen")
	// ErrEmptyPermission is returned for an empty permission name.
	ErrEmptyPermission = errors.New("permission name cannot be empty")
	// ErrWildcardNotDeclarable is returned when a route tries to require the wildcard.
	ErrWildcardNotDeclarable = errors.New("wildcard cannot be required by a route")
)

// Registry records the canonical permission strings protected operations require.
//
// Registration happens during startup; after [Registry.Freeze] the registry is read-only
// and safe for concurrent lookups.
type Registry struct {
	mu     sync.RWMutex
	names  map[string]struct{}
	order  []string
	frozen bool
}

// NewRegistry returns an empty registry, optionally pre-populated with names.
func NewRegistry(names ...string) (*Registry, error) {
	r := &Registry{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if err := r.Register(n); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register declares name. Registering the same name twice is a no-op.
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if name == "" {
		return ErrEmptyPermission
	}
	if name == WildcardValue {
		return ErrWildcardNotDeclarable
	}
	if _, exists := r.names[name]; exists {
		return nil
	}

	r.names[name] = struct{}{}
	r.order = append(r.order, name)
	return nil
}

// Has reports whether name was registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Names returns registered permissions in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
