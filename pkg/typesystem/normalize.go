package typesystem

import (
	"fmt"
	"github.com/funvibe/multimethod/internal/config"
	"reflect"
	"sort"
	"strconv"
)

// Normalize converts a type description into its canonical node.
//
//   - Any (Object) arguments collapse a parameterized class to its origin,
//     except fixed-size tuples which always keep their elements.
//   - Unions are flattened, deduplicated and sorted; a single remaining
//     member is returned directly.
//   - Literals are based on the union of their values' classes.
//   - References are resolved through the universe.
func Normalize(u *Universe, t Type) (Type, error) {
	switch typ := t.(type) {
	case nil:
		return nil, NewMalformedError("<nil>", "missing type")
	case TCon:
		if typ.Class == nil {
			return nil, NewMalformedError("<nil>", "missing class")
		}
		return typ, nil
	case TEmpty:
		return typ, nil
	case TRef:
		c, ok := u.Lookup(typ.Name)
		if !ok {
			return nil, NewUnresolvedError(typ.Name)
		}
		if len(typ.Args) == 0 {
			return TCon{Class: c}, nil
		}
		return Normalize(u, TApp{Class: c, Args: typ.Args})
	case TApp:
		return normalizeApp(u, typ)
	case TTuple:
		elems, err := normalizeAll(u, typ.Elements)
		if err != nil {
			return nil, err
		}
		return TTuple{Elements: elems}, nil
	case TUnion:
		members, err := normalizeAll(u, typ.Types)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, NewMalformedError(typ.String(), "empty union")
		}
		return NormalizeUnion(members), nil
	case TLiteral:
		return normalizeLiteral(typ)
	case TFunc:
		params, err := normalizeAll(u, typ.Params)
		if err != nil {
			return nil, err
		}
		ret := Any
		if typ.Return != nil {
			if ret, err = Normalize(u, typ.Return); err != nil {
				return nil, err
			}
		}
		if typ.AnyParams {
			params = nil
			if Equal(ret, Any) {
				return Callable, nil
			}
		}
		return TFunc{Params: params, Return: ret, AnyParams: typ.AnyParams}, nil
	case TType:
		of, err := Normalize(u, typ.Of)
		if err != nil {
			return nil, err
		}
		if Equal(of, Any) {
			return TypeT, nil
		}
		return TType{Of: of}, nil
	}
	return nil, NewMalformedError(fmt.Sprintf("%T", t), "unsupported type description")
}

// NormalizeAll normalizes every description, stopping at the first error.
func NormalizeAll(u *Universe, types []Type) ([]Type, error) {
	return normalizeAll(u, types)
}

func normalizeAll(u *Universe, types []Type) ([]Type, error) {
	out := make([]Type, len(types))
	for i, t := range types {
		n, err := Normalize(u, t)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func normalizeApp(u *Universe, typ TApp) (Type, error) {
	if typ.Class == nil {
		return nil, NewMalformedError("<nil>", "missing class")
	}
	args, err := normalizeAll(u, typ.Args)
	if err != nil {
		return nil, err
	}
	c := typ.Class
	if c == TypeClass {
		if len(args) != 1 || typ.Variadic {
			return nil, NewMalformedError(typ.String(), "Type takes exactly one argument")
		}
		return Normalize(u, TType{Of: args[0]})
	}
	if c.Params == 0 {
		return nil, NewMalformedError(typ.String(), fmt.Sprintf("%s is not generic", c.Name))
	}
	if typ.Variadic {
		if len(args) != 1 {
			return nil, NewMalformedError(typ.String(), "variadic form takes exactly one argument")
		}
		if !c.IsSubclassOf(TupleClass) {
			return nil, NewMalformedError(typ.String(), fmt.Sprintf("%s is not a tuple class", c.Name))
		}
		return newApp(c, args, true), nil
	}
	if c.IsSubclassOf(TupleClass) {
		return TTuple{Elements: args}, nil
	}
	if len(args) != c.Params {
		return nil, NewMalformedError(typ.String(),
			fmt.Sprintf("%s expects %d type arguments, got %d", c.Name, c.Params, len(args)))
	}
	return newApp(c, args, false), nil
}

// newApp builds a normalized parameterized node from normalized arguments.
func newApp(c *Class, args []Type, variadic bool) Type {
	trivial := true
	for _, a := range args {
		if !Equal(a, Any) {
			trivial = false
			break
		}
	}
	if trivial {
		return TCon{Class: c}
	}
	return TApp{Class: c, Args: args, Variadic: variadic}
}

// NormalizeUnion creates a normalized union from normalized members.
// It flattens nested unions, removes duplicates, and sorts members by key.
func NormalizeUnion(types []Type) Type {
	flat := []Type{}
	for _, t := range types {
		if u, ok := t.(TUnion); ok {
			flat = append(flat, u.Types...)
		} else {
			flat = append(flat, t)
		}
	}

	seen := make(map[string]bool)
	unique := []Type{}
	for _, t := range flat {
		k := t.Key()
		if !seen[k] {
			seen[k] = true
			unique = append(unique, t)
		}
	}

	if len(unique) == 1 {
		return unique[0]
	}
	for _, t := range unique {
		// Object absorbs every other member
		if Equal(t, Any) {
			return Any
		}
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Key() < unique[j].Key()
	})

	origins := make([]*Class, len(unique))
	for i, t := range unique {
		origins[i] = t.Origin()
	}
	return TUnion{Types: unique, Base: commonBase(origins)}
}

func normalizeLiteral(typ TLiteral) (Type, error) {
	if len(typ.Values) == 0 {
		return nil, NewMalformedError(config.LiteralName+"[]", "literal needs at least one value")
	}
	values := []any{}
	for _, v := range typ.Values {
		if literalClass(v) == nil {
			return nil, NewMalformedError(typ.String(), fmt.Sprintf("unsupported literal value %v (%T)", v, v))
		}
		dup := false
		for _, seen := range values {
			if sameLiteral(seen, v) {
				dup = true
				break
			}
		}
		if !dup {
			values = append(values, v)
		}
	}
	classes := make([]Type, len(values))
	for i, v := range values {
		classes[i] = TCon{Class: literalClass(v)}
	}
	return TLiteral{Values: values, Base: NormalizeUnion(classes)}, nil
}

// literalClass returns the builtin class of a scalar literal value, or nil
// if the value cannot be used as a literal.
func literalClass(v any) *Class {
	if v == nil {
		return NoneClass
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return BoolClass
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IntClass
	case reflect.Float32, reflect.Float64:
		return FloatClass
	case reflect.String:
		return StrClass
	}
	return nil
}

// sameLiteral compares value and exact Go dynamic type.
func sameLiteral(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

func formatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return strconv.Quote(val)
	}
	return fmt.Sprintf("%v", v)
}

func literalKey(v any) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%T(%v)", v, formatLiteral(v))
}
