package tiny

// TypeKind enumerates the structural shapes a Type can take. Structs
// and foreign types are nominal (compared by Name); every other kind
// compares by Kind alone, per spec.md §3.
type TypeKind int

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeAny
	TypeStruct
	TypeForeign
)

func (k TypeKind) String() string {
	switch k {
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	case TypeAny:
		return "any"
	case TypeStruct:
		return "struct"
	case TypeForeign:
		return "foreign"
	default:
		return "?"
	}
}

// Type is structurally one of void/bool/int/float/string/any/named-
// struct/named-foreign. Name is only meaningful (and only compared)
// for TypeStruct and TypeForeign.
type Type struct {
	Kind TypeKind
	Name string // struct tag or foreign type tag; empty for primitives
}

func (t *Type) String() string {
	if t == nil {
		return "<untyped>"
	}
	if t.Kind == TypeStruct || t.Kind == TypeForeign {
		return t.Name
	}
	return t.Kind.String()
}

var (
	VoidType   = &Type{Kind: TypeVoid}
	BoolType   = &Type{Kind: TypeBool}
	IntType    = &Type{Kind: TypeInt}
	FloatType  = &Type{Kind: TypeFloat}
	StringType = &Type{Kind: TypeString}
	AnyType    = &Type{Kind: TypeAny}
)

func StructType(name string) *Type   { return &Type{Kind: TypeStruct, Name: name} }
func ForeignType(name string) *Type  { return &Type{Kind: TypeForeign, Name: name} }
func IsNumeric(t *Type) bool         { return t != nil && (t.Kind == TypeInt || t.Kind == TypeFloat) }
func IsVoid(t *Type) bool            { return t == nil || t.Kind == TypeVoid }

// SameKind compares two types structurally: primitives by Kind,
// structs/foreign by identity of their interned Name.
func SameKind(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == TypeStruct || a.Kind == TypeForeign {
		return a.Name == b.Name
	}
	return true
}

// AssignableTo reports whether a value of type `from` may be assigned
// or passed where `to` is expected: identical kinds are always
// compatible, and any type may flow into `any` (widening). Converting
// *from* any requires an explicit cast (§4.5), so `any -> concrete` is
// never assignable here.
func AssignableTo(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if to.Kind == TypeAny {
		return true
	}
	return SameKind(from, to)
}

// ArithResult implements §4.5's + - * / promotion rule: both int ->
// int; either float (with the other int or float) -> float. Returns
// nil if the operands are not both numeric.
func ArithResult(a, b *Type) *Type {
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil
	}
	if a.Kind == TypeFloat || b.Kind == TypeFloat {
		return FloatType
	}
	return IntType
}

func typeError(pos Pos, format string, args ...any) CompileError {
	return newCompileError("resolve", pos, format, args...)
}
