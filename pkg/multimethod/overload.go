package multimethod

import (
	"errors"
	"slices"
	"sync"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// Predicate tests one argument.
type Predicate func(arg any) bool

// Isa returns a predicate matching values that are instances of any of the
// given types. It panics if a type cannot be normalized.
func Isa(u *typesystem.Universe, types ...typesystem.Type) Predicate {
	normalized, err := typesystem.NormalizeAll(u, types)
	if err != nil {
		panic(err)
	}
	return func(arg any) bool {
		for _, t := range normalized {
			if typesystem.IsInstance(u, t, arg) {
				return true
			}
		}
		return false
	}
}

// Overload dispatches to the most recently registered implementation whose
// predicates all accept the arguments. Unlike Multimethod it has no notion of
// specificity; order alone decides.
type Overload struct {
	Name string

	mu       sync.RWMutex
	universe *typesystem.Universe
	cases    []overloadCase
}

type overloadCase struct {
	method *Method
	preds  []Predicate
}

// NewOverload creates an empty overload. Only WithUniverse is honored, for
// reporting argument types in errors.
func NewOverload(name string, opts ...Option) *Overload {
	o := buildOptions(opts)
	return &Overload{Name: name, universe: o.Universe}
}

// Register adds fn guarded by one predicate per leading argument. A nil
// predicate accepts anything.
func (o *Overload) Register(fn any, preds ...Predicate) error {
	method, err := NewMethod(o.Name, fn)
	if err != nil {
		return newDispatchError(o.Name, ErrMalformedSignature, nil, nil, err)
	}
	o.mu.Lock()
	o.cases = append(o.cases, overloadCase{method: method, preds: slices.Clone(preds)})
	o.mu.Unlock()
	return nil
}

// Len returns the number of registered implementations.
func (o *Overload) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.cases)
}

// Call invokes the last registered implementation that accepts args.
func (o *Overload) Call(args ...any) (any, error) {
	o.mu.RLock()
	cases := o.cases
	o.mu.RUnlock()

	for i := len(cases) - 1; i >= 0; i-- {
		c := cases[i]
		if !c.accepts(args) {
			continue
		}
		result, err := c.method.invoke(args)
		var argErr *argumentError
		if errors.As(err, &argErr) {
			return nil, newDispatchError(o.Name, ErrBadCall, o.argTypes(args), nil, argErr.err)
		}
		return result, err
	}
	return nil, newDispatchError(o.Name, ErrNoApplicableMethod, o.argTypes(args), nil, nil)
}

func (c overloadCase) accepts(args []any) bool {
	conv := c.method.conv
	minArgs := conv.NumIn
	if conv.Variadic {
		minArgs--
	}
	if len(args) < minArgs || !conv.Accepts(len(args)) {
		return false
	}
	for i, pred := range c.preds {
		if i >= len(args) {
			break
		}
		if pred != nil && !pred(args[i]) {
			return false
		}
	}
	return true
}

func (o *Overload) argTypes(args []any) []typesystem.Type {
	types := make([]typesystem.Type, len(args))
	for i, arg := range args {
		types[i] = o.universe.TypeOf(arg)
	}
	return types
}
