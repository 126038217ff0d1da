package typesystem

import (
	"fmt"
	"github.com/funvibe/multimethod/internal/config"
	"reflect"
	"strings"
)

// Type is the interface for all normalized type nodes.
//
// Contains is the subclass check with the receiver as the supertype; it is
// only asked about structural subtypes (plain, parameterized, tuple, callable
// and meta nodes). Union, literal and empty subtypes are handled once in
// IsSubtype so every variant agrees on them.
type Type interface {
	String() string
	Key() string
	Origin() *Class
	Contains(sub Type) bool
	InstanceType(u *Universe, v any) Type
}

// IsSubtype reports whether every value described by sub is also described
// by sup.
func IsSubtype(sub, sup Type) bool {
	switch s := sub.(type) {
	case TEmpty:
		return true
	case TUnion:
		for _, m := range s.Types {
			if !IsSubtype(m, sup) {
				return false
			}
		}
		return true
	case TLiteral:
		return literalIsSubtype(s, sup)
	}
	return sup.Contains(sub)
}

func literalIsSubtype(sub TLiteral, sup Type) bool {
	switch p := sup.(type) {
	case TLiteral:
		return p.containsAll(sub.Values)
	case TUnion:
		for _, m := range p.Types {
			if IsSubtype(sub, m) {
				return true
			}
		}
		// values may be split across members
		for _, v := range sub.Values {
			single := TLiteral{Values: []any{v}, Base: TCon{Class: literalClass(v)}}
			matched := false
			for _, m := range p.Types {
				if IsSubtype(single, m) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	}
	for _, v := range sub.Values {
		if !sup.Contains(TCon{Class: literalClass(v)}) {
			return false
		}
	}
	return true
}

// Equal reports whether two nodes have the same canonical identity.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// TCon is a plain (unparameterized) class.
type TCon struct {
	Class *Class
}

func (t TCon) String() string { return t.Class.Name }
func (t TCon) Key() string    { return t.Class.Name }
func (t TCon) Origin() *Class { return t.Class }

func (t TCon) Contains(sub Type) bool {
	return sub.Origin().IsSubclassOf(t.Class)
}

func (t TCon) InstanceType(u *Universe, v any) Type { return u.TypeOf(v) }

// TApp is a parameterized class such as List[Int] or Map[Str, Int].
// Variadic marks a homogeneous tuple, Tuple[T, ...], whose single argument
// describes every element.
type TApp struct {
	Class    *Class
	Args     []Type
	Variadic bool
}

func (t TApp) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	if t.Variadic {
		args = append(args, "...")
	}
	return fmt.Sprintf("%s[%s]", t.Class.Name, strings.Join(args, ", "))
}

func (t TApp) Key() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Key()
	}
	if t.Variadic {
		args = append(args, "...")
	}
	return t.Class.Name + "[" + strings.Join(args, ",") + "]"
}

func (t TApp) Origin() *Class { return t.Class }

func (t TApp) Contains(sub Type) bool {
	if !sub.Origin().IsSubclassOf(t.Class) {
		return false
	}
	var args []Type
	switch s := sub.(type) {
	case TApp:
		args = s.Args
	case TTuple:
		if t.Variadic {
			for _, e := range s.Elements {
				if !IsSubtype(e, t.Args[0]) {
					return false
				}
			}
			return true
		}
		args = s.Elements
	default:
		// a plain class carries no subscripts to compare
		return false
	}
	if len(args) == 1 {
		if _, empty := args[0].(TEmpty); empty {
			return true
		}
	}
	if len(args) < len(t.Args) {
		return false
	}
	for i, param := range t.Args {
		if !IsSubtype(args[i], param) {
			return false
		}
	}
	return true
}

func (t TApp) InstanceType(u *Universe, v any) Type { return inspectContainer(u, t, v) }

// TTuple is a fixed-size tuple of exact element types. Unlike TApp it keeps
// its element list even when every element is Any, to preserve arity.
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	if len(t.Elements) == 0 {
		return config.TupleName + "[()]"
	}
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return fmt.Sprintf("%s[%s]", config.TupleName, strings.Join(elems, ", "))
}

func (t TTuple) Key() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.Key()
	}
	return config.TupleName + "(" + strings.Join(elems, ",") + ")"
}

func (t TTuple) Origin() *Class { return TupleClass }

func (t TTuple) Contains(sub Type) bool {
	s, ok := sub.(TTuple)
	if !ok || len(s.Elements) != len(t.Elements) {
		return false
	}
	for i, e := range t.Elements {
		if !IsSubtype(s.Elements[i], e) {
			return false
		}
	}
	return true
}

func (t TTuple) InstanceType(u *Universe, v any) Type { return inspectContainer(u, t, v) }

// TUnion is a union of at least two normalized members, sorted by key.
// Base is the most specific class shared by all members.
type TUnion struct {
	Types []Type
	Base  *Class
}

func (t TUnion) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (t TUnion) Key() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.Key()
	}
	return strings.Join(parts, "|")
}

func (t TUnion) Origin() *Class { return t.Base }

func (t TUnion) Contains(sub Type) bool {
	for _, m := range t.Types {
		if IsSubtype(sub, m) {
			return true
		}
	}
	return false
}

// InstanceType evaluates every branch and keeps the most specific one that
// still matches its branch.
func (t TUnion) InstanceType(u *Universe, v any) Type {
	var best Type
	for _, m := range t.Types {
		candidate := m.InstanceType(u, v)
		if !IsSubtype(candidate, m) {
			continue
		}
		if best == nil || !IsSubtype(best, candidate) {
			best = candidate
		}
	}
	if best == nil {
		return u.TypeOf(v)
	}
	return best
}

// TLiteral allows only the listed constant values. Membership requires the
// same value and the same Go dynamic type.
type TLiteral struct {
	Values []any
	Base   Type
}

func (t TLiteral) String() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = formatLiteral(v)
	}
	return fmt.Sprintf("%s[%s]", config.LiteralName, strings.Join(parts, ", "))
}

func (t TLiteral) Key() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = literalKey(v)
	}
	return config.LiteralName + "[" + strings.Join(parts, ",") + "]"
}

func (t TLiteral) Origin() *Class { return t.Base.Origin() }

// Contains only ever sees structural subtypes here, which are never literals.
func (t TLiteral) Contains(sub Type) bool { return false }

func (t TLiteral) InstanceType(u *Universe, v any) Type {
	for _, lv := range t.Values {
		if sameLiteral(lv, v) {
			return TLiteral{Values: []any{v}, Base: TCon{Class: literalClass(v)}}
		}
	}
	return u.TypeOf(v)
}

func (t TLiteral) containsAll(values []any) bool {
	for _, v := range values {
		found := false
		for _, lv := range t.Values {
			if sameLiteral(lv, v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TFunc describes a callable by parameter and return types. AnyParams
// records a leading "..." parameter list: the callable accepts anything.
type TFunc struct {
	Params    []Type
	Return    Type
	AnyParams bool
}

func (t TFunc) String() string {
	params := "..."
	if !t.AnyParams {
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		params = "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%s[%s, %s]", config.CallableName, params, t.Return.String())
}

func (t TFunc) Key() string {
	params := "..."
	if !t.AnyParams {
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.Key()
		}
		params = "[" + strings.Join(parts, ",") + "]"
	}
	return config.CallableName + "[" + params + "," + t.Return.Key() + "]"
}

func (t TFunc) Origin() *Class { return CallableClass }

// Contains compares the return type covariantly and the parameters
// contravariantly.
func (t TFunc) Contains(sub Type) bool {
	s, ok := sub.(TFunc)
	if !ok {
		return false
	}
	if !IsSubtype(s.Return, t.Return) {
		return false
	}
	if t.AnyParams || s.AnyParams {
		return true
	}
	if len(s.Params) > len(t.Params) {
		return false
	}
	for i, p := range s.Params {
		if !IsSubtype(t.Params[i], p) {
			return false
		}
	}
	return true
}

func (t TFunc) InstanceType(u *Universe, v any) Type {
	if v == nil {
		return u.TypeOf(v)
	}
	rt := reflect.TypeOf(v)
	if rt.Kind() != reflect.Func {
		return u.TypeOf(v)
	}
	return u.FromGoType(rt)
}

// TType is the type of a class value, Type[X].
type TType struct {
	Of Type
}

func (t TType) String() string { return fmt.Sprintf("%s[%s]", config.TypeName, t.Of.String()) }
func (t TType) Key() string    { return config.TypeName + "[" + t.Of.Key() + "]" }
func (t TType) Origin() *Class { return TypeClass }

func (t TType) Contains(sub Type) bool {
	s, ok := sub.(TType)
	return ok && IsSubtype(s.Of, t.Of)
}

func (t TType) InstanceType(u *Universe, v any) Type {
	switch val := v.(type) {
	case *Class:
		return TType{Of: TCon{Class: val}}
	case Type:
		if Equal(val, Any) {
			return TypeT
		}
		return TType{Of: val}
	}
	return u.TypeOf(v)
}

// TRef is an unresolved reference to a class by name. It only exists in
// descriptions; Normalize resolves it or reports an UnresolvedError.
type TRef struct {
	Name string
	Args []Type
}

func (t TRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return TApp{Class: &Class{Name: t.Name}, Args: t.Args}.String()
}

func (t TRef) Key() string                          { return "?" + t.String() }
func (t TRef) Origin() *Class                       { return ObjectClass }
func (t TRef) Contains(sub Type) bool               { return false }
func (t TRef) InstanceType(u *Universe, v any) Type { return u.TypeOf(v) }

// TEmpty is the element type of an empty container. It is a subtype of
// every type, so an empty container matches any parameterization of its
// class.
type TEmpty struct{}

func (TEmpty) String() string                       { return config.EmptyName }
func (TEmpty) Key() string                          { return config.EmptyName }
func (TEmpty) Origin() *Class                       { return ObjectClass }
func (TEmpty) Contains(sub Type) bool               { return false }
func (TEmpty) InstanceType(u *Universe, v any) Type { return u.TypeOf(v) }

// Description constructors. The results are not normalized; pass them
// through Normalize (registration does so automatically).

// Of describes a plain class.
func Of(c *Class) Type { return TCon{Class: c} }

// Generic describes a class subscripted with type arguments.
func Generic(c *Class, args ...Type) Type { return TApp{Class: c, Args: args} }

func ListOf(elem Type) Type { return TApp{Class: ListClass, Args: []Type{elem}} }

func SequenceOf(elem Type) Type { return TApp{Class: SequenceClass, Args: []Type{elem}} }

func IterableOf(elem Type) Type { return TApp{Class: IterableClass, Args: []Type{elem}} }

func MapOf(key, value Type) Type { return TApp{Class: MapClass, Args: []Type{key, value}} }

func MappingOf(key, value Type) Type {
	return TApp{Class: MappingClass, Args: []Type{key, value}}
}

// TupleOf describes a fixed-size tuple.
func TupleOf(elems ...Type) Type { return TTuple{Elements: elems} }

// VarTupleOf describes a homogeneous tuple of any length, Tuple[T, ...].
func VarTupleOf(elem Type) Type {
	return TApp{Class: TupleClass, Args: []Type{elem}, Variadic: true}
}

func Union(members ...Type) Type { return TUnion{Types: members} }

// Literal describes a set of allowed scalar constants.
func Literal(values ...any) Type { return TLiteral{Values: values} }

func Func(params []Type, ret Type) Type { return TFunc{Params: params, Return: ret} }

// FuncAny describes a callable accepting any arguments, Callable[..., R].
func FuncAny(ret Type) Type { return TFunc{Return: ret, AnyParams: true} }

// Meta describes a class value, Type[X].
func Meta(of Type) Type { return TType{Of: of} }

// Ref names a class that may not be defined yet.
func Ref(name string, args ...Type) Type { return TRef{Name: name, Args: args} }
