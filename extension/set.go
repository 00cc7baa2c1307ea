package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Disposer is implemented by modules that release resources on teardown.
type Disposer interface {
	Dispose(ctx context.Context) error
}

// Set holds mounted modules by name in mount order.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: Names follows first mount; replacing a module keeps its slot.
type Set struct {
	mu      sync.RWMutex
	modules map[string]any
	order   []string
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{modules: make(map[string]any)}
}

// Put stores module under name and returns the module it replaced, if any.
func (s *Set) Put(name string, module any) (previous any, replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, replaced = s.modules[name]
	if !replaced {
		s.order = append(s.order, name)
	}
	s.modules[name] = module
	return previous, replaced
}

// Get returns the module stored under name.
func (s *Set) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[name]
	return m, ok
}

// Names returns module names in mount order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of mounted modules.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Close empties the set and disposes its modules in reverse mount order.
// Every module is attempted; the errors are joined.
func (s *Set) Close(ctx context.Context) error {
	s.mu.Lock()
	order := s.order
	modules := s.modules
	s.order = nil
	s.modules = make(map[string]any)
	s.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		if err := Dispose(ctx, modules[name]); err != nil {
			errs = append(errs, fmt.Errorf("extension: dispose %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Dispose releases module if it implements Disposer or io.Closer.
func Dispose(ctx context.Context, module any) error {
	switch m := module.(type) {
	case Disposer:
		return m.Dispose(ctx)
	case io.Closer:
		return m.Close()
	default:
		return nil
	}
}
