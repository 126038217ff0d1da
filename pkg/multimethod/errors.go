package multimethod

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// Dispatch failure kinds. Every *DispatchError wraps exactly one of them.
var (
	ErrNoApplicableMethod = errors.New("no applicable method")
	ErrAmbiguousDispatch  = errors.New("ambiguous dispatch")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrBadCall            = errors.New("bad call")
)

// DispatchError reports a failed registration or resolution. Types holds the
// attempted argument types and Candidates copies of the signatures that were
// in play (the tied ones for an ambiguity).
type DispatchError struct {
	Name       string
	Types      []typesystem.Type
	Candidates []*Signature
	Reason     error
	Err        error
}

func (e *DispatchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	sb.WriteString(": ")
	sb.WriteString(e.Reason.Error())
	if e.Types != nil {
		sb.WriteString(" for ")
		sb.WriteString(typesString(e.Types))
	}
	if len(e.Candidates) > 0 {
		parts := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			parts[i] = c.String()
		}
		fmt.Fprintf(&sb, ": %d candidates: %s", len(e.Candidates), strings.Join(parts, ", "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the failure kind and its cause to errors.Is and
// errors.As.
func (e *DispatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func newDispatchError(name string, reason error, types []typesystem.Type, candidates []*Signature, err error) *DispatchError {
	return &DispatchError{Name: name, Types: types, Candidates: candidates, Reason: reason, Err: err}
}

func typesString(types []typesystem.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
