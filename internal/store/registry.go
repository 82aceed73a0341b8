package store

import (
	"errors"
	"fmt"
	"sync"
)

// Resetter is anything that can be wiped on an explicit cache reset.
type Resetter interface {
	Name() string
	Reset() error
}

type resetFunc struct {
	name string
	fn   func() error
}

func (r resetFunc) Name() string { return r.name }
func (r resetFunc) Reset() error { return r.fn() }

// Registry tracks the caches cleared by "cache reset", in registration order.
type Registry struct {
	mu      sync.Mutex
	entries []Resetter
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(rs ...Resetter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, rs...)
}

// RegisterFunc registers a named reset hook.
func (r *Registry) RegisterFunc(name string, fn func() error) {
	r.Register(resetFunc{name: name, fn: fn})
}

// Names lists registered caches in order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name())
	}
	return names
}

// ResetAll resets every registered cache, calling done after each successful reset.
// Failures do not stop the remaining resets; they are joined into the returned error.
func (r *Registry) ResetAll(done func(name string)) error {
	r.mu.Lock()
	entries := append([]Resetter(nil), r.entries...)
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.Reset(); err != nil {
			errs = append(errs, fmt.Errorf("failed to reset %s: %w", e.Name(), err))
			continue
		}
		if done != nil {
			done(e.Name())
		}
	}
	return errors.Join(errs...)
}
