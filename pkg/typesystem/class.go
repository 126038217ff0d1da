package typesystem

import (
	"fmt"
	"github.com/funvibe/multimethod/internal/config"
	"strings"
	"sync/atomic"
)

// Class is a nominal runtime type: the thing a value "is" for dispatch
// purposes. Classes form a multiple-inheritance hierarchy linearized with C3,
// so every class has a deterministic method resolution order (MRO).
type Class struct {
	Name     string
	Bases    []*Class // rewritten by the owning Universe when an interface base appears
	Params   int      // number of type arguments accepted when subscripted (0 = not generic)
	Abstract bool     // abstract classes are never the exact class of a value
	mro      atomic.Pointer[[]*Class]
}

func (c *Class) String() string { return c.Name }

// MRO returns the linearization of c, starting with c itself and ending with
// Object. The returned slice must not be modified.
func (c *Class) MRO() []*Class {
	if p := c.mro.Load(); p != nil {
		return *p
	}
	return nil
}

// IsSubclassOf reports whether other appears in c's MRO.
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == other || other == ObjectClass {
		return true
	}
	for _, k := range c.MRO() {
		if k == other {
			return true
		}
	}
	return false
}

// newClass builds a class and computes its MRO. Classes without explicit
// bases inherit from Object.
func newClass(name string, params int, abstract bool, bases ...*Class) (*Class, error) {
	c := &Class{Name: name, Params: params, Abstract: abstract, Bases: bases}
	if name != config.ObjectName && len(bases) == 0 {
		c.Bases = []*Class{ObjectClass}
	}
	mro, err := linearize(c)
	if err != nil {
		return nil, err
	}
	c.mro.Store(&mro)
	return c, nil
}

// rebase replaces the bases of c and recomputes its MRO. On failure c keeps
// its old bases.
func (c *Class) rebase(bases []*Class) error {
	old := c.Bases
	c.Bases = bases
	mro, err := linearize(c)
	if err != nil {
		c.Bases = old
		return err
	}
	c.mro.Store(&mro)
	return nil
}

func mustClass(name string, params int, abstract bool, bases ...*Class) *Class {
	c, err := newClass(name, params, abstract, bases...)
	if err != nil {
		panic(err)
	}
	return c
}

// linearize computes the C3 linearization of c.
func linearize(c *Class) ([]*Class, error) {
	seqs := make([][]*Class, 0, len(c.Bases)+1)
	for _, b := range c.Bases {
		if b == nil {
			return nil, NewMalformedError(c.Name, "nil base class")
		}
		seqs = append(seqs, append([]*Class(nil), b.MRO()...))
	}
	seqs = append(seqs, append([]*Class(nil), c.Bases...))

	result := []*Class{c}
	for {
		nonEmpty := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				nonEmpty = append(nonEmpty, s)
			}
		}
		seqs = nonEmpty
		if len(seqs) == 0 {
			return result, nil
		}

		var head *Class
		for _, s := range seqs {
			candidate := s[0]
			if !inTail(candidate, seqs) {
				head = candidate
				break
			}
		}
		if head == nil {
			names := make([]string, len(c.Bases))
			for i, b := range c.Bases {
				names[i] = b.Name
			}
			return nil, NewMalformedError(c.Name,
				fmt.Sprintf("cannot create a consistent method resolution order for bases %s", strings.Join(names, ", ")))
		}

		result = append(result, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(c *Class, seqs [][]*Class) bool {
	for _, s := range seqs {
		for _, k := range s[1:] {
			if k == c {
				return true
			}
		}
	}
	return false
}

// commonBase returns the most specific class every given class inherits from.
func commonBase(classes []*Class) *Class {
	if len(classes) == 0 {
		return ObjectClass
	}
	for _, candidate := range classes[0].MRO() {
		shared := true
		for _, c := range classes[1:] {
			if !c.IsSubclassOf(candidate) {
				shared = false
				break
			}
		}
		if shared {
			return candidate
		}
	}
	return ObjectClass
}
