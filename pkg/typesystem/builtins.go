package typesystem

import "github.com/funvibe/multimethod/internal/config"

// Builtin classes shared by every Universe.
var (
	ObjectClass   *Class
	NoneClass     *Class
	IntClass      *Class
	BoolClass     *Class
	FloatClass    *Class
	ComplexClass  *Class
	IterableClass *Class
	SequenceClass *Class
	MappingClass  *Class
	StrClass      *Class
	BytesClass    *Class
	ListClass     *Class
	TupleClass    *Class
	MapClass      *Class
	CallableClass *Class
	TypeClass     *Class
	ErrorClass    *Class
)

// Plain nodes for the builtin classes.
var (
	Any      Type
	None     Type
	Int      Type
	Bool     Type
	Float    Type
	Complex  Type
	Str      Type
	Bytes    Type
	Iterable Type
	Sequence Type
	Mapping  Type
	List     Type
	TupleT   Type
	Map      Type
	Callable Type
	TypeT    Type
	ErrorT   Type
)

var builtinClasses []*Class

func init() {
	ObjectClass = mustClass(config.ObjectName, 0, false)
	NoneClass = mustClass(config.NoneName, 0, false)
	IntClass = mustClass(config.IntName, 0, false)
	BoolClass = mustClass(config.BoolName, 0, false, IntClass)
	FloatClass = mustClass(config.FloatName, 0, false)
	ComplexClass = mustClass(config.ComplexName, 0, false)
	IterableClass = mustClass(config.IterableName, 1, true)
	SequenceClass = mustClass(config.SequenceName, 1, true, IterableClass)
	MappingClass = mustClass(config.MappingName, 2, true, IterableClass)
	StrClass = mustClass(config.StrName, 0, false, SequenceClass)
	BytesClass = mustClass(config.BytesName, 0, false, SequenceClass)
	ListClass = mustClass(config.ListName, 1, false, SequenceClass)
	TupleClass = mustClass(config.TupleName, 1, false, SequenceClass)
	MapClass = mustClass(config.MapName, 2, false, MappingClass)
	CallableClass = mustClass(config.CallableName, 0, false)
	TypeClass = mustClass(config.TypeName, 1, false)
	ErrorClass = mustClass(config.ErrorName, 0, true)

	builtinClasses = []*Class{
		ObjectClass, NoneClass, IntClass, BoolClass, FloatClass, ComplexClass,
		IterableClass, SequenceClass, MappingClass, StrClass, BytesClass,
		ListClass, TupleClass, MapClass, CallableClass, TypeClass, ErrorClass,
	}

	Any = TCon{Class: ObjectClass}
	None = TCon{Class: NoneClass}
	Int = TCon{Class: IntClass}
	Bool = TCon{Class: BoolClass}
	Float = TCon{Class: FloatClass}
	Complex = TCon{Class: ComplexClass}
	Str = TCon{Class: StrClass}
	Bytes = TCon{Class: BytesClass}
	Iterable = TCon{Class: IterableClass}
	Sequence = TCon{Class: SequenceClass}
	Mapping = TCon{Class: MappingClass}
	List = TCon{Class: ListClass}
	TupleT = TCon{Class: TupleClass}
	Map = TCon{Class: MapClass}
	Callable = TCon{Class: CallableClass}
	TypeT = TCon{Class: TypeClass}
	ErrorT = TCon{Class: ErrorClass}
}

// Tuple is the Go representation of a fixed-size heterogeneous tuple value.
type Tuple []any
