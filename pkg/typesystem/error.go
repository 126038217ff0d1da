package typesystem

import "fmt"

// MalformedError indicates a type description that cannot be normalized.
type MalformedError struct {
	Type   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed type %s: %s", e.Type, e.Reason)
}

func NewMalformedError(typ, reason string) *MalformedError {
	return &MalformedError{Type: typ, Reason: reason}
}

// UnresolvedError indicates a forward reference to a class that is not
// defined yet.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved type reference: %s", e.Name)
}

func NewUnresolvedError(name string) *UnresolvedError {
	return &UnresolvedError{Name: name}
}
