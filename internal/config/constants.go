package config

// TableFileName is the default dispatch table looked up by the CLI.
const TableFileName = "dispatch.yaml"

// TableFileNames are all recognized dispatch table file names.
var TableFileNames = []string{"dispatch.yaml", "dispatch.yml"}

// Builtin class names
const (
	ObjectName   = "Object"
	NoneName     = "NoneType"
	IntName      = "Int"
	BoolName     = "Bool"
	FloatName    = "Float"
	ComplexName  = "Complex"
	IterableName = "Iterable"
	SequenceName = "Sequence"
	MappingName  = "Mapping"
	StrName      = "Str"
	BytesName    = "Bytes"
	ListName     = "List"
	TupleName    = "Tuple"
	MapName      = "Map"
	CallableName = "Callable"
	TypeName     = "Type"
	ErrorName    = "Error"
)

// Special forms understood by the type-string parser
const (
	AnyName     = "Any"
	UnionName   = "Union"
	LiteralName = "Literal"
	NoneLiteral = "None"
	EmptyName   = "<empty>"
)

// Expected error kinds in dispatch tables
const (
	ExpectNoMethod  = "no-method"
	ExpectAmbiguous = "ambiguous"
	ExpectMalformed = "malformed"
)
