package tiny

import "fmt"

// ValueKind discriminates Value's tagged union, per spec.md §3: every
// value is either a primitive stored inline or a reference into the
// heap.
type ValueKind byte

const (
	ValNull ValueKind = iota
	ValBool
	ValInt
	ValFloat
	ValString
	ValStruct
	ValForeign
)

// Value is Tiny's tagged-union runtime value. Primitives are stored
// inline (no heap traffic for bool/int/float); strings and structs
// are heap references subject to mark-and-sweep collection.
//
// Grounded on the teacher's Value interface (value.go) wrapping
// concrete kinds behind an interface with type assertions; reshaped
// here into a single flat struct, matching spec.md §3's description
// of Value as one tagged union rather than a family of boxed types —
// avoids an allocation per primitive value, which the VM's operand
// stack churns through constantly.
type Value struct {
	Kind ValueKind
	I    int64   // ValInt, and ValBool (0/1)
	F    float64 // ValFloat
	Obj  *HeapObject // ValString, ValStruct, ValForeign
}

var NullValue = Value{Kind: ValNull}

func BoolValue(b bool) Value {
	if b {
		return Value{Kind: ValBool, I: 1}
	}
	return Value{Kind: ValBool, I: 0}
}

func IntValue(v int64) Value     { return Value{Kind: ValInt, I: v} }
func FloatValue(v float64) Value { return Value{Kind: ValFloat, F: v} }

func (v Value) Bool() bool { return v.I != 0 }

func (v Value) String() string {
	switch v.Kind {
	case ValNull:
		return "null"
	case ValBool:
		return fmt.Sprintf("%t", v.Bool())
	case ValInt:
		return fmt.Sprintf("%d", v.I)
	case ValFloat:
		return fmt.Sprintf("%g", v.F)
	case ValString:
		if v.Obj != nil {
			return v.Obj.Str
		}
		return ""
	case ValStruct:
		if v.Obj != nil {
			return fmt.Sprintf("%s{...}", v.Obj.StructTag)
		}
		return "<struct>"
	case ValForeign:
		if v.Obj != nil {
			return fmt.Sprintf("<foreign %s>", v.Obj.ForeignTag)
		}
		return "<foreign>"
	default:
		return "<?>"
	}
}

// Equal implements spec.md §4.5's equality: primitives compare by
// value, strings by content, structs/foreign values by reference
// identity (the same rule the teacher's Value equality helpers use
// for composite kinds versus scalars).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValNull:
		return true
	case ValBool, ValInt:
		return v.I == o.I
	case ValFloat:
		return v.F == o.F
	case ValString:
		if v.Obj == nil || o.Obj == nil {
			return v.Obj == o.Obj
		}
		return v.Obj.Str == o.Obj.Str
	default:
		return v.Obj == o.Obj
	}
}
