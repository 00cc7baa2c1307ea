package extension

import (
	"fmt"
	"regexp"
	"sync"
)

// MaxNameLength is the longest accepted name.
const MaxNameLength = 255

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateName checks name against the naming rules.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Factory builds a module for host.
type Factory[H any] func(host H) (any, error)

// Registration is a pending name and factory pair.
type Registration[H any] struct {
	Name    string
	Factory Factory[H]
}

// Mount runs factory for host. Errors and panics are returned as *MountError.
func Mount[H any](host H, name string, factory Factory[H]) (module any, err error) {
	if err := ValidateName(name); err != nil {
		return nil, &MountError{Name: name, Err: err}
	}
	if factory == nil {
		return nil, &MountError{Name: name, Err: ErrNilFactory}
	}

	defer func() {
		if r := recover(); r != nil {
			module = nil
			err = &MountError{Name: name, Err: &PanicError{Value: r}}
		}
	}()

	module, err = factory(host)
	if err != nil {
		return nil, &MountError{Name: name, Err: err}
	}
	return module, nil
}

// Registry collects registrations made before a host exists.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: iteration follows first registration; re-registering a name
//   replaces its factory in place.
type Registry[H any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[H]
	order     []string
}

// NewRegistry creates an empty Registry.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{factories: make(map[string]Factory[H])}
}

// Register records factory under name.
func (r *Registry[H]) Register(name string, factory Factory[H]) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("%w: %q", ErrNilFactory, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
	return nil
}

// Unregister removes the registration for name.
func (r *Registry[H]) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; !ok {
		return
	}
	delete(r.factories, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// Names returns registered names in order.
func (r *Registry[H]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Registrations returns a snapshot of the registrations in order.
func (r *Registry[H]) Registrations() []Registration[H] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Registration[H], len(r.order))
	for i, name := range r.order {
		out[i] = Registration[H]{Name: name, Factory: r.factories[name]}
	}
	return out
}

// MountAll mounts every registration into set, in order. It stops at the
// first failure and returns its *MountError; modules mounted before the
// failure stay in set.
func (r *Registry[H]) MountAll(host H, set *Set) error {
	for _, reg := range r.Registrations() {
		module, err := Mount(host, reg.Name, reg.Factory)
		if err != nil {
			return err
		}
		set.Put(reg.Name, module)
	}
	return nil
}
