// Package tables builds dispatch graphs from YAML dispatch tables and checks
// the calls they list.
package tables

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/funvibe/multimethod/internal/config"
	"github.com/funvibe/multimethod/pkg/typesystem"
	"github.com/funvibe/multimethod/pkg/multimethod"
)

// Set holds the graphs built from one table.
type Set struct {
	Universe  *typesystem.Universe
	Namespace *multimethod.Namespace

	// Registrations has one result per table method, in table order.
	Registrations []Result

	table *config.Table
}

// Build defines the table's classes in a fresh universe and registers its
// methods. Each implementation returns its method's result label.
// Registration failures are recorded as results, not returned; only a
// broken class hierarchy is an error.
func Build(t *config.Table, logger *slog.Logger) (*Set, error) {
	u := typesystem.NewUniverse()
	for _, spec := range t.Classes {
		if err := defineClass(u, spec); err != nil {
			return nil, err
		}
	}

	opts := []multimethod.Option{multimethod.WithUniverse(u), multimethod.WithLogger(logger)}
	if !t.Settings.CacheEnabled() {
		opts = append(opts, multimethod.WithoutCache())
	}
	set := &Set{Universe: u, Namespace: multimethod.NewNamespace(opts...), table: t}

	for _, spec := range t.Methods {
		set.Registrations = append(set.Registrations, set.register(spec))
	}
	return set, nil
}

func defineClass(u *typesystem.Universe, spec config.ClassSpec) error {
	bases := make([]*typesystem.Class, 0, len(spec.Bases))
	for _, name := range spec.Bases {
		c, ok := u.Lookup(name)
		if !ok {
			return fmt.Errorf("class %s: unknown base %q", spec.Name, name)
		}
		bases = append(bases, c)
	}

	var err error
	switch {
	case spec.Params > 0:
		_, err = u.DefineGeneric(spec.Name, spec.Params, bases...)
	case spec.Abstract:
		_, err = u.DefineAbstract(spec.Name, bases...)
	default:
		_, err = u.Define(spec.Name, bases...)
	}
	if err != nil {
		return fmt.Errorf("class %s: %w", spec.Name, err)
	}
	return nil
}

func (s *Set) register(spec config.MethodSpec) Result {
	res := Result{
		Graph:   spec.Graph,
		Subject: "register " + spec.Graph + signatureString(spec.Signature),
		Want:    want(spec.Result, spec.Error),
	}

	var deferred bool
	types, err := typesystem.ParseAll(s.Universe, spec.Signature...)
	if err == nil {
		label := spec.Result
		var method *multimethod.Method
		method, err = multimethod.NewMethod(spec.Graph, func(...any) string { return label })
		if err == nil {
			m := s.Namespace.Get(spec.Graph)
			before := m.Pending()
			err = m.RegisterMethod(method, *spec.Required, types...)
			deferred = m.Pending() > before
		}
	}

	switch {
	case deferred:
		res.Got = "pending"
	case err != nil:
		res.Got, res.Err = errorKind(err), err
	case spec.Error != "":
		res.Got = "registered"
	default:
		res.Got = spec.Result
	}
	res.Pass = res.Got == res.Want
	return res
}

// Graph returns the multimethod registered under name.
func (s *Set) Graph(name string) (*multimethod.Multimethod, bool) {
	return s.Namespace.Lookup(name)
}

// errorKind maps a dispatch failure onto the table's error kinds.
func errorKind(err error) string {
	var malformed *typesystem.MalformedError
	var unresolved *typesystem.UnresolvedError
	switch {
	case errors.Is(err, multimethod.ErrAmbiguousDispatch):
		return config.ExpectAmbiguous
	case errors.Is(err, multimethod.ErrNoApplicableMethod):
		return config.ExpectNoMethod
	case errors.Is(err, multimethod.ErrMalformedSignature),
		errors.As(err, &malformed), errors.As(err, &unresolved):
		return config.ExpectMalformed
	}
	return "error: " + err.Error()
}
