// Package registry maps short backend names to lazily constructed
// implementations. Registries are filled at startup and only read while
// serving requests.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknown matches every UnknownError via errors.Is.
var ErrUnknown = errors.New("unknown backend")

// UnknownError is returned by Resolve for a name that was never registered.
type UnknownError struct {
	Kind      string
	Name      string
	Available []string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown %s %q; available: %s", e.Kind, e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownError) Is(target error) bool { return target == ErrUnknown }

// Factory builds one implementation. It runs at most once per successful
// construction; a failed construction is retried on the next Resolve.
type Factory[T any] func() (T, error)

type entry[T any] struct {
	factory Factory[T]

	mu    sync.Mutex
	built bool
	impl  T
}

func (e *entry[T]) get() (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.built {
		return e.impl, nil
	}
	impl, err := e.factory()
	if err != nil {
		var zero T
		return zero, err
	}
	e.impl, e.built = impl, true
	return impl, nil
}

type Registry[T any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]*entry[T]
}

// New creates an empty registry; kind names the capability in error messages
// (e.g. "TTS model", "storage backend").
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]*entry[T]),
	}
}

// Register adds factory under name. Registering a name twice replaces the
// earlier factory and discards any instance it produced.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	if factory == nil {
		panic("registry: Register factory is nil for " + name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &entry[T]{factory: factory}
}

// Resolve returns the implementation registered under name, constructing it
// on first use.
func (r *Registry[T]) Resolve(name string) (T, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, &UnknownError{Kind: r.kind, Name: name, Available: r.Names()}
	}

	impl, err := e.get()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("initialize %s %q: %w", r.kind, name, err)
	}
	return impl, nil
}

func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names lists registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
