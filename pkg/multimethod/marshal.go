package multimethod

import (
	"fmt"
	"reflect"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// convertArg adapts a dispatched value to the Go parameter type of the
// chosen implementation. Values are passed through when assignable;
// numbers, strings, slices and maps are converted element-wise otherwise.
func convertArg(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", target)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if inst, ok := v.(typesystem.Instance); ok {
		return convertArg(inst.Value, target)
	}
	// pointers dispatch as their element type
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(target) {
		return rv.Elem(), nil
	}

	switch {
	// Bool is an Int subclass, so integer parameters take bools as 0 or 1
	case rv.Kind() == reflect.Bool && integerKind(target.Kind()):
		var n int
		if rv.Bool() {
			n = 1
		}
		return reflect.ValueOf(n).Convert(target), nil
	case target.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		return convertSlice(rv, target)
	case target.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		return convertMap(rv, target)
	case convertible(rv, target):
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", rv.Type(), target)
}

func integerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func convertible(rv reflect.Value, target reflect.Type) bool {
	if !rv.CanConvert(target) {
		return false
	}
	// integer to string conversion yields a rune, never a formatted number
	if target.Kind() == reflect.String {
		switch rv.Kind() {
		case reflect.String, reflect.Slice:
			return true
		}
		return false
	}
	return true
}

func convertSlice(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	elemType := target.Elem()
	slice := reflect.MakeSlice(target, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el, err := convertArg(rv.Index(i).Interface(), elemType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		slice = reflect.Append(slice, el)
	}
	return slice, nil
}

func convertMap(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	keyType, valType := target.Key(), target.Elem()
	result := reflect.MakeMapWithSize(target, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		kv, err := convertArg(iter.Key().Interface(), keyType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("map key: %w", err)
		}
		vv, err := convertArg(iter.Value().Interface(), valType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("map value: %w", err)
		}
		result.SetMapIndex(kv, vv)
	}
	return result, nil
}
