package typesystem

import "reflect"

// inspectContainer computes the effective type of v against a declared
// parameterized node. Only the first element of a slice or array and the
// first entry of a map are inspected; containers are assumed homogeneous.
// Fixed tuples are inspected at every position. Strings and bytes are never
// looked into.
func inspectContainer(u *Universe, declared Type, v any) Type {
	base := u.TypeOf(v)
	if v == nil {
		return base
	}
	class := base.Origin()
	if !class.IsSubclassOf(declared.Origin()) {
		return base
	}
	if class.IsSubclassOf(StrClass) || class.IsSubclassOf(BytesClass) {
		return base
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return base
		}
		rv = rv.Elem()
	}

	switch d := declared.(type) {
	case TTuple:
		return inspectTuple(u, base, d.Elements, rv)
	case TApp:
		if d.Variadic {
			if !isSequenceValue(rv) {
				return base
			}
			elems := make([]Type, rv.Len())
			for i := range elems {
				elems[i] = d.Args[0].InstanceType(u, rv.Index(i).Interface())
			}
			return TTuple{Elements: elems}
		}
		return inspectApp(u, class, d, rv, base)
	}
	return base
}

func inspectTuple(u *Universe, base Type, elems []Type, rv reflect.Value) Type {
	if !isSequenceValue(rv) || rv.Len() != len(elems) {
		return base
	}
	out := make([]Type, len(elems))
	for i, e := range elems {
		out[i] = e.InstanceType(u, rv.Index(i).Interface())
	}
	return TTuple{Elements: out}
}

func inspectApp(u *Universe, class *Class, d TApp, rv reflect.Value, base Type) Type {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return TApp{Class: class, Args: []Type{TEmpty{}}}
		}
		if len(d.Args) != 1 {
			return base
		}
		elem := d.Args[0].InstanceType(u, rv.Index(0).Interface())
		return TApp{Class: class, Args: []Type{elem}}
	case reflect.Map:
		if rv.Len() == 0 {
			return TApp{Class: class, Args: []Type{TEmpty{}}}
		}
		iter := rv.MapRange()
		iter.Next()
		key := d.Args[0].InstanceType(u, iter.Key().Interface())
		if len(d.Args) < 2 || !d.Class.IsSubclassOf(MappingClass) {
			return TApp{Class: class, Args: []Type{key}}
		}
		value := d.Args[1].InstanceType(u, iter.Value().Interface())
		return TApp{Class: class, Args: []Type{key, value}}
	}
	return base
}

func isSequenceValue(rv reflect.Value) bool {
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// IsInstance reports whether v is described by the normalized type t.
func IsInstance(u *Universe, t Type, v any) bool {
	return IsSubtype(t.InstanceType(u, v), t)
}
