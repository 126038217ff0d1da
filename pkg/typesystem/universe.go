package typesystem

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Universe owns the class hierarchy that dispatch checks against and maps Go
// runtime types onto it. The zero value is not usable; call NewUniverse.
type Universe struct {
	mu       sync.RWMutex
	byName   map[string]*Class
	byGo     map[reflect.Type]*Class
	ifaces   map[reflect.Type]*Class
	implicit map[*Class]reflect.Type // classes whose bases derive from their Go type

	generation atomic.Uint64
}

// Instance is a value of a class that has no Go type of its own, such as a
// class declared in a dispatch table.
type Instance struct {
	Class *Class
	Value any
}

func (i Instance) String() string {
	if i.Value == nil {
		return i.Class.Name + "()"
	}
	return fmt.Sprintf("%s(%v)", i.Class.Name, i.Value)
}

var (
	defaultUniverse     *Universe
	defaultUniverseOnce sync.Once
)

// Default returns the process-wide universe.
func Default() *Universe {
	defaultUniverseOnce.Do(func() {
		defaultUniverse = NewUniverse()
	})
	return defaultUniverse
}

// NewUniverse creates a universe that knows only the builtin classes.
func NewUniverse() *Universe {
	u := &Universe{
		byName:   make(map[string]*Class),
		byGo:     make(map[reflect.Type]*Class),
		ifaces:   make(map[reflect.Type]*Class),
		implicit: make(map[*Class]reflect.Type),
	}
	for _, c := range builtinClasses {
		u.byName[c.Name] = c
	}
	u.byGo[reflect.TypeFor[Tuple]()] = TupleClass
	errorType := reflect.TypeFor[error]()
	u.byGo[errorType] = ErrorClass
	u.ifaces[errorType] = ErrorClass
	return u
}

// Generation counts the changes to existing classes' MROs. Results derived
// from the hierarchy are stale once it moves.
func (u *Universe) Generation() uint64 { return u.generation.Load() }

// Define declares a nominal class with no Go type. Values of it are built
// with Instance.
func (u *Universe) Define(name string, bases ...*Class) (*Class, error) {
	return u.define(name, 0, false, bases)
}

// DefineAbstract declares a nominal class that is never the exact class of
// a value.
func (u *Universe) DefineAbstract(name string, bases ...*Class) (*Class, error) {
	return u.define(name, 0, true, bases)
}

// DefineGeneric declares a class accepting params type arguments.
func (u *Universe) DefineGeneric(name string, params int, bases ...*Class) (*Class, error) {
	return u.define(name, params, false, bases)
}

func (u *Universe) define(name string, params int, abstract bool, bases []*Class) (*Class, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.defineLocked(name, params, abstract, bases)
}

func (u *Universe) defineLocked(name string, params int, abstract bool, bases []*Class) (*Class, error) {
	if name == "" {
		return nil, NewMalformedError("<anonymous>", "class name is empty")
	}
	if _, exists := u.byName[name]; exists {
		return nil, NewMalformedError(name, "class already defined")
	}
	c, err := newClass(name, params, abstract, bases...)
	if err != nil {
		return nil, err
	}
	u.byName[name] = c
	return c, nil
}

// DefineType binds the Go type T to a new class. An interface type becomes
// an abstract class inherited by every concrete Go type implementing it,
// including types classed before it. Without explicit bases a concrete type
// inherits its kind's builtin class and the interface classes it implements.
func DefineType[T any](u *Universe, name string, bases ...*Class) (*Class, error) {
	rt := reflect.TypeFor[T]()

	u.mu.Lock()
	defer u.mu.Unlock()

	if c, bound := u.byGo[rt]; bound {
		return nil, NewMalformedError(name, fmt.Sprintf("%s is already bound to class %s", rt, c.Name))
	}
	if rt.Kind() == reflect.Interface {
		c, err := u.defineLocked(name, 0, true, bases)
		if err != nil {
			return nil, err
		}
		u.byGo[rt] = c
		u.ifaces[rt] = c
		u.relinkLocked(rt, c)
		return c, nil
	}
	implicit := len(bases) == 0
	if implicit {
		bases = u.implicitBases(rt)
	}
	c, err := u.defineLocked(name, 0, false, bases)
	if err != nil {
		return nil, err
	}
	u.byGo[rt] = c
	if implicit {
		u.implicit[c] = rt
	}
	return c, nil
}

// MustDefineType is like DefineType but panics on error.
func MustDefineType[T any](u *Universe, name string, bases ...*Class) *Class {
	c, err := DefineType[T](u, name, bases...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a class by name.
func (u *Universe) Lookup(name string) (*Class, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	c, ok := u.byName[name]
	return c, ok
}

// Classes returns every class of the universe sorted by name.
func (u *Universe) Classes() []*Class {
	u.mu.RLock()
	out := make([]*Class, 0, len(u.byName))
	for _, c := range u.byName {
		out = append(out, c)
	}
	u.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ClassOf returns the exact class of a value.
func (u *Universe) ClassOf(v any) *Class {
	switch val := v.(type) {
	case nil:
		return NoneClass
	case Instance:
		return val.Class
	case *Instance:
		if val != nil {
			return val.Class
		}
		return NoneClass
	case *Class, Type:
		return TypeClass
	}
	return u.ClassOfType(reflect.TypeOf(v))
}

// TypeOf returns the plain type node of a value.
func (u *Universe) TypeOf(v any) Type {
	return TCon{Class: u.ClassOf(v)}
}

// ClassOfType maps a Go type to its class, auto-classing named types that
// were never bound.
func (u *Universe) ClassOfType(rt reflect.Type) *Class {
	u.mu.RLock()
	c, ok := u.byGo[rt]
	if !ok && rt.Kind() == reflect.Pointer {
		c, ok = u.byGo[rt.Elem()]
	}
	u.mu.RUnlock()
	if ok {
		return c
	}

	named := rt
	if named.Kind() == reflect.Pointer && named.Elem().Name() != "" {
		named = named.Elem()
	}
	if named.Kind() == reflect.Interface && named.NumMethod() > 0 {
		return u.autoClass(named)
	}
	if named.Name() == "" || named.PkgPath() == "" {
		if k := kindClass(named); k != nil {
			return k
		}
		return ObjectClass
	}
	return u.autoClass(named)
}

func (u *Universe) autoClass(rt reflect.Type) *Class {
	u.mu.Lock()
	defer u.mu.Unlock()
	if c, ok := u.byGo[rt]; ok {
		return c
	}
	name := rt.String()
	if _, taken := u.byName[name]; taken {
		name = rt.PkgPath() + "." + rt.Name()
	}
	abstract := rt.Kind() == reflect.Interface
	c, err := u.defineLocked(name, 0, abstract, u.implicitBases(rt))
	if err != nil {
		// the interface bases cannot be linearized together; keep the kind
		c = mustClass(name, 0, abstract, kindBases(rt)...)
		u.byName[name] = c
	}
	u.byGo[rt] = c
	u.implicit[c] = rt
	if abstract {
		u.ifaces[rt] = c
		u.relinkLocked(rt, c)
	}
	return c
}

// relinkLocked adds the new interface class iface to the bases of every
// Go-derived class whose type implements it, then recomputes the MROs that
// inherit from a changed class. Classes are visited bases first.
func (u *Universe) relinkLocked(it reflect.Type, iface *Class) {
	classes := make([]*Class, 0, len(u.byName))
	for _, c := range u.byName {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool {
		li, lj := len(classes[i].MRO()), len(classes[j].MRO())
		if li != lj {
			return li < lj
		}
		return classes[i].Name < classes[j].Name
	})

	changed := make(map[*Class]bool)
	for _, c := range classes {
		if c == iface {
			continue
		}
		rt, implicit := u.implicit[c]
		switch {
		case implicit && !c.IsSubclassOf(iface) && (rt.Implements(it) || reflect.PointerTo(rt).Implements(it)):
			if c.rebase(u.implicitBases(rt)) == nil {
				changed[c] = true
			}
		case inheritsFrom(c, changed):
			if c.rebase(c.Bases) == nil {
				changed[c] = true
			}
		}
	}
	if len(changed) > 0 {
		u.generation.Add(1)
	}
}

func inheritsFrom(c *Class, classes map[*Class]bool) bool {
	for _, k := range c.MRO()[1:] {
		if classes[k] {
			return true
		}
	}
	return false
}

// implicitBases lists the kind class of rt and every declared interface
// class that rt or *rt implements, minus bases implied by other bases.
func (u *Universe) implicitBases(rt reflect.Type) []*Class {
	bases := kindBases(rt)
	ptr := reflect.PointerTo(rt)
	ifaces := make([]reflect.Type, 0, len(u.ifaces))
	for it := range u.ifaces {
		ifaces = append(ifaces, it)
	}
	sort.Slice(ifaces, func(i, j int) bool { return u.ifaces[ifaces[i]].Name < u.ifaces[ifaces[j]].Name })
	for _, it := range ifaces {
		if it == rt {
			continue
		}
		if rt.Implements(it) || ptr.Implements(it) {
			bases = append(bases, u.ifaces[it])
		}
	}

	pruned := []*Class{}
	for i, b := range bases {
		implied := false
		for j, other := range bases {
			if i != j && other != b && other.IsSubclassOf(b) {
				implied = true
				break
			}
		}
		if !implied {
			pruned = append(pruned, b)
		}
	}
	return pruned
}

func kindBases(rt reflect.Type) []*Class {
	if k := kindClass(rt); k != nil {
		return []*Class{k}
	}
	return nil
}

// kindClass maps a Go kind to its builtin class, or nil for kinds with no
// builtin counterpart.
func kindClass(rt reflect.Type) *Class {
	switch rt.Kind() {
	case reflect.Bool:
		return BoolClass
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return IntClass
	case reflect.Float32, reflect.Float64:
		return FloatClass
	case reflect.Complex64, reflect.Complex128:
		return ComplexClass
	case reflect.String:
		return StrClass
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return BytesClass
		}
		return ListClass
	case reflect.Array:
		return ListClass
	case reflect.Map:
		return MapClass
	case reflect.Func:
		return CallableClass
	}
	return nil
}

// FromGoType describes a Go type as a normalized node. Parameters of
// functions, elements of slices and entries of maps are described
// recursively.
func (u *Universe) FromGoType(rt reflect.Type) Type {
	if rt == nil {
		return None
	}
	if rt.Kind() == reflect.Interface {
		if rt.NumMethod() == 0 {
			return Any
		}
		return TCon{Class: u.ClassOfType(rt)}
	}
	if rt.Name() == "" || rt.PkgPath() == "" {
		switch rt.Kind() {
		case reflect.Slice, reflect.Array:
			if rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8 {
				return Bytes
			}
			return newApp(ListClass, []Type{u.FromGoType(rt.Elem())}, false)
		case reflect.Map:
			return newApp(MapClass, []Type{u.FromGoType(rt.Key()), u.FromGoType(rt.Elem())}, false)
		case reflect.Func:
			return u.funcType(rt)
		}
	}
	return TCon{Class: u.ClassOfType(rt)}
}

func (u *Universe) funcType(rt reflect.Type) Type {
	ret := None
	if rt.NumOut() > 0 {
		ret = u.FromGoType(rt.Out(0))
	}
	if rt.IsVariadic() {
		return TFunc{Return: ret, AnyParams: true}
	}
	params := make([]Type, rt.NumIn())
	for i := range params {
		params[i] = u.FromGoType(rt.In(i))
	}
	return TFunc{Params: params, Return: ret}
}
