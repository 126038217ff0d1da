package multimethod

import (
	"fmt"
	"slices"
)

// Multidispatch is a multimethod whose dispatch positions have names, so
// calls may pass some of them as keywords. Name the parameters with
// WithParams.
type Multidispatch struct {
	*Multimethod
	params []string
}

// NewMultidispatch creates an empty Multidispatch.
func NewMultidispatch(name string, opts ...Option) *Multidispatch {
	m := New(name, opts...)
	return &Multidispatch{Multimethod: m, params: m.opts.Params}
}

// Params returns the declared parameter names.
func (d *Multidispatch) Params() []string { return slices.Clone(d.params) }

// CallNamed binds kwargs to their declared positions after args and
// dispatches on the resulting positional arguments.
func (d *Multidispatch) CallNamed(args []any, kwargs map[string]any) (any, error) {
	if len(kwargs) == 0 {
		return d.Call(args...)
	}
	bound, err := d.bind(args, kwargs)
	if err != nil {
		return nil, newDispatchError(d.Name, ErrBadCall, nil, nil, err)
	}
	return d.Call(bound...)
}

func (d *Multidispatch) bind(args []any, kwargs map[string]any) ([]any, error) {
	bound := slices.Clone(args)
	filled := make([]bool, len(args))
	for i := range filled {
		filled[i] = true
	}
	for name, value := range kwargs {
		i := slices.Index(d.params, name)
		if i < 0 {
			return nil, fmt.Errorf("unexpected keyword argument %q", name)
		}
		if i < len(args) {
			return nil, fmt.Errorf("multiple values for argument %q", name)
		}
		for len(bound) <= i {
			bound = append(bound, nil)
			filled = append(filled, false)
		}
		bound[i] = value
		filled[i] = true
	}
	for i, ok := range filled {
		if !ok {
			return nil, fmt.Errorf("missing argument %q", d.params[i])
		}
	}
	return bound, nil
}
