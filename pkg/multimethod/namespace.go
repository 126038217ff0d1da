package multimethod

import (
	"sort"
	"sync"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// Namespace maps names to multimethods. Registering under a name that is
// already present adds to the existing graph instead of replacing it.
type Namespace struct {
	mu     sync.RWMutex
	opts   []Option
	graphs map[string]*Multimethod
}

// NewNamespace creates an empty namespace whose multimethods are built with
// opts.
func NewNamespace(opts ...Option) *Namespace {
	return &Namespace{opts: opts, graphs: make(map[string]*Multimethod)}
}

var defaultNamespace = NewNamespace()

// DefaultNamespace returns the namespace used by the package-level Register
// and Call.
func DefaultNamespace() *Namespace { return defaultNamespace }

// Get returns the multimethod for name, creating it if needed.
func (ns *Namespace) Get(name string) *Multimethod {
	ns.mu.RLock()
	m, ok := ns.graphs[name]
	ns.mu.RUnlock()
	if ok {
		return m
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	if m, ok := ns.graphs[name]; ok {
		return m
	}
	m = New(name, ns.opts...)
	ns.graphs[name] = m
	return m
}

// Lookup returns the multimethod for name if it exists.
func (ns *Namespace) Lookup(name string) (*Multimethod, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	m, ok := ns.graphs[name]
	return m, ok
}

// Names returns the registered names in sorted order.
func (ns *Namespace) Names() []string {
	ns.mu.RLock()
	names := make([]string, 0, len(ns.graphs))
	for name := range ns.graphs {
		names = append(names, name)
	}
	ns.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Register adds fn under name and returns the accumulated multimethod.
func (ns *Namespace) Register(name string, fn any, types ...typesystem.Type) (*Multimethod, error) {
	m := ns.Get(name)
	if err := m.Register(fn, types...); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterFunc adds fn under name with a signature derived from its Go
// parameter types.
func (ns *Namespace) RegisterFunc(name string, fn any) (*Multimethod, error) {
	m := ns.Get(name)
	if err := m.RegisterFunc(fn); err != nil {
		return nil, err
	}
	return m, nil
}

// Call dispatches args to the multimethod registered under name.
func (ns *Namespace) Call(name string, args ...any) (any, error) {
	m, ok := ns.Lookup(name)
	if !ok {
		return nil, newDispatchError(name, ErrNoApplicableMethod, nil, nil, nil)
	}
	return m.Call(args...)
}

// Register adds fn under name in the default namespace.
func Register(name string, fn any, types ...typesystem.Type) (*Multimethod, error) {
	return defaultNamespace.Register(name, fn, types...)
}

// Call dispatches args to name in the default namespace.
func Call(name string, args ...any) (any, error) {
	return defaultNamespace.Call(name, args...)
}
