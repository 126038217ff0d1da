package tables

import (
	"strings"

	"github.com/funvibe/multimethod/internal/config"
	"github.com/funvibe/multimethod/pkg/typesystem"
	"github.com/funvibe/multimethod/pkg/multimethod"
)

// Result is the outcome of one table entry.
type Result struct {
	Graph   string
	Subject string
	Want    string
	Got     string
	Pass    bool
	Err     error
}

// Check resolves every call of the table and compares the outcome with its
// expectation. Registration results come first.
func (s *Set) Check() []Result {
	results := append([]Result(nil), s.Registrations...)
	for _, call := range s.table.Calls {
		results = append(results, s.check(call))
	}
	return results
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

func (s *Set) check(call config.CallSpec) Result {
	res := Result{
		Graph:   call.Graph,
		Subject: call.Graph + signatureString(call.Args),
		Want:    want(call.Expect, call.Error),
	}
	label, err := s.resolve(call)
	if err != nil {
		res.Got, res.Err = errorKind(err), err
	} else {
		res.Got = label
	}
	res.Pass = res.Got == res.Want
	return res
}

// resolve finds the implementation a call dispatches to and returns its
// result label.
func (s *Set) resolve(call config.CallSpec) (string, error) {
	types, err := typesystem.ParseAll(s.Universe, call.Args...)
	if err != nil {
		return "", err
	}
	m := s.Namespace.Get(call.Graph)
	method, err := m.Resolve(types...)
	if err != nil {
		return "", err
	}
	return label(method)
}

func label(method *multimethod.Method) (string, error) {
	v, err := method.Call()
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func want(result, errKind string) string {
	if errKind != "" {
		return errKind
	}
	return result
}

func signatureString(types []string) string {
	return "(" + strings.Join(types, ", ") + ")"
}
