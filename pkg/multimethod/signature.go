package multimethod

import (
	"sort"
	"strings"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// CallConv describes what a callable accepts positionally: NumIn fixed
// parameters, plus any number more when Variadic.
type CallConv struct {
	NumIn    int
	Variadic bool
}

// Accepts reports whether a call with n positional arguments would be
// accepted. Missing trailing parameters are filled with zero values, so only
// surplus arguments are rejected.
func (c CallConv) Accepts(n int) bool {
	return c.Variadic || n <= c.NumIn
}

// Signature is an ordered tuple of normalized parameter types. Required is
// the number of leading positions a call must supply; trailing positions
// beyond it are optional.
type Signature struct {
	Types    []typesystem.Type
	Required int

	key     string
	conv    CallConv
	parents map[string]*Signature
}

func newSignature(types []typesystem.Type, required int, conv CallConv) *Signature {
	return &Signature{
		Types:    types,
		Required: required,
		key:      typesKey(types),
		conv:     conv,
		parents:  make(map[string]*Signature),
	}
}

// typesKey is the canonical identity of a type tuple.
func typesKey(types []typesystem.Type) string {
	keys := make([]string, len(types))
	for i, t := range types {
		keys[i] = t.Key()
	}
	return "(" + strings.Join(keys, ", ") + ")"
}

// Key returns the canonical identity of the signature's types.
func (s *Signature) Key() string { return s.key }

func (s *Signature) String() string {
	parts := make([]string, len(s.Types))
	for i, t := range s.Types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Covers reports whether every call with the given argument types is
// compatible with s: enough arguments are supplied and each one is a subtype
// of the declared type at its position.
func (s *Signature) Covers(types []typesystem.Type) bool {
	if s.Required > len(types) {
		return false
	}
	n := min(len(s.Types), len(types))
	for i := 0; i < n; i++ {
		if !typesystem.IsSubtype(types[i], s.Types[i]) {
			return false
		}
	}
	return true
}

// StrictlyCovers reports whether s is strictly more general than other. Two
// signatures with optional positions can cover each other; then the one
// requiring fewer arguments is the more general, and with equal requirements
// the shorter one. The relation is antisymmetric.
func (s *Signature) StrictlyCovers(other *Signature) bool {
	if s.key == other.key || !s.Covers(other.Types) {
		return false
	}
	if !other.Covers(s.Types) {
		return true
	}
	switch {
	case s.Required != other.Required:
		return s.Required < other.Required
	case len(s.Types) != len(other.Types):
		return len(s.Types) < len(other.Types)
	}
	return s.key < other.key
}

// Callable reports whether the registered callable accepts n positional
// arguments.
func (s *Signature) Callable(n int) bool { return s.conv.Accepts(n) }

// Distance returns, per position, how far the declared type sits above the
// actual type in the actual type's hierarchy.
func (s *Signature) Distance(types []typesystem.Type) []int {
	n := min(len(s.Types), len(types))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = typesystem.Distance(s.Types[i], types[i])
	}
	return out
}

// Parents returns the immediate parents of s, sorted by key.
func (s *Signature) Parents() []*Signature {
	return sortedSignatures(s.parents)
}

func sortedSignatures(m map[string]*Signature) []*Signature {
	out := make([]*Signature, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// compareDistances orders distance tuples lexicographically; a shorter tuple
// that is a prefix of a longer one sorts first.
func compareDistances(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
