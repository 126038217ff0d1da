package multimethod

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

var errorType = reflect.TypeFor[error]()

// Method is a Go function registered as an implementation. One Method may be
// registered under several signatures; dispatch treats those as the same
// callable.
type Method struct {
	Name string

	fn   reflect.Value
	conv CallConv
}

// NewMethod wraps fn, which must be a non-nil Go function.
func NewMethod(name string, fn any) (*Method, error) {
	if m, ok := fn.(*Method); ok {
		return m, nil
	}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %s: implementation must be a function, got %T", ErrMalformedSignature, name, fn)
	}
	t := v.Type()
	return &Method{
		Name: name,
		fn:   v,
		conv: CallConv{NumIn: t.NumIn(), Variadic: t.IsVariadic()},
	}, nil
}

// Conv returns the method's calling convention.
func (m *Method) Conv() CallConv { return m.conv }

// Func returns the wrapped Go function.
func (m *Method) Func() any { return m.fn.Interface() }

func (m *Method) String() string {
	return fmt.Sprintf("%s %s", m.Name, m.fn.Type())
}

// Call invokes the function. Missing trailing parameters get zero values.
// A trailing error result is returned as the error; other results are
// returned as a single value, nil, or a typesystem.Tuple when there are
// several. Arguments the function cannot accept are reported as ErrBadCall.
func (m *Method) Call(args ...any) (any, error) {
	result, err := m.invoke(args)
	var argErr *argumentError
	if errors.As(err, &argErr) {
		return nil, fmt.Errorf("%w: %w", ErrBadCall, argErr.err)
	}
	return result, err
}

// argumentError reports arguments that could not be passed to the function,
// as opposed to an error the function itself returned.
type argumentError struct {
	err error
}

func (e *argumentError) Error() string { return e.err.Error() }
func (e *argumentError) Unwrap() error { return e.err }

func (m *Method) invoke(args []any) (any, error) {
	if !m.conv.Accepts(len(args)) {
		return nil, &argumentError{fmt.Errorf("%s accepts %d arguments, got %d", m.Name, m.conv.NumIn, len(args))}
	}
	fnType := m.fn.Type()
	numIn := fnType.NumIn()

	n := numIn
	if m.conv.Variadic {
		n = numIn - 1
	}
	n = max(n, len(args))
	goArgs := make([]reflect.Value, n)
	for i := range goArgs {
		var target reflect.Type
		if m.conv.Variadic && i >= numIn-1 {
			target = fnType.In(numIn - 1).Elem()
		} else {
			target = fnType.In(i)
		}
		if i >= len(args) {
			goArgs[i] = reflect.Zero(target)
			continue
		}
		val, convErr := convertArg(args[i], target)
		if convErr != nil {
			return nil, &argumentError{fmt.Errorf("%s argument %d: %w", m.Name, i, convErr)}
		}
		goArgs[i] = val
	}

	return unpackResults(m.fn.Call(goArgs))
}

func unpackResults(results []reflect.Value) (any, error) {
	var err error
	if n := len(results); n > 0 && results[n-1].Type() == errorType {
		if e := results[n-1].Interface(); e != nil {
			err = e.(error)
		}
		results = results[:n-1]
	}
	switch len(results) {
	case 0:
		return nil, err
	case 1:
		return results[0].Interface(), err
	}
	tuple := make(typesystem.Tuple, len(results))
	for i, r := range results {
		tuple[i] = r.Interface()
	}
	return tuple, err
}
