// Package value defines the tagged runtime value and heap object model
// shared by the compiler and the VM.
package value

import (
	"math"
	"strconv"
)

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a tagged union over {Bool, Nil, Number, Obj}. The zero Value
// is Nil.
type Value struct {
	kind   Kind
	number float64
	boll   bool
	obj    *Obj
}

// Nil is the canonical nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean into a Value.
func Bool(b bool) Value { return Value{kind: KindBool, boll: b} }

// Number wraps a float64 into a Value.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// FromObj wraps a heap object reference into a Value.
func FromObj(o *Obj) Value { return Value{kind: KindObj, obj: o} }

// IsNil reports whether v is the Nil value.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsObj reports whether v holds a heap object reference.
func (v Value) IsObj() bool { return v.kind == KindObj }

// IsString reports whether v holds an interned string object.
func (v Value) IsString() bool { return v.kind == KindObj && v.obj != nil && v.obj.Kind == ObjKindString }

// AsBool returns the boolean payload; the caller must have checked IsBool.
func (v Value) AsBool() bool { return v.boll }

// AsNumber returns the float64 payload; the caller must have checked IsNumber.
func (v Value) AsNumber() float64 { return v.number }

// AsObj returns the object pointer; the caller must have checked IsObj.
func (v Value) AsObj() *Obj { return v.obj }

// AsString returns the Go string underlying an interned string value.
// The caller must have checked IsString.
func (v Value) AsString() string { return v.obj.Str.Chars }

// Falsey implements the language's truthiness rule: nil and false are
// falsey, everything else (including 0 and "") is truthy.
func (v Value) Falsey() bool {
	return v.kind == KindNil || (v.kind == KindBool && !v.boll)
}

// Truthy is the negation of Falsey.
func (v Value) Truthy() bool { return !v.Falsey() }

// Equal implements value equality: same variant and payload-equal.
// Two string objects are equal iff pointer-identical, which holds for any
// two strings produced through the intern table (see package intern).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.boll == b.boll
	case KindNumber:
		return a.number == b.number
	case KindObj:
		if a.obj.Kind != b.obj.Kind {
			return false
		}
		switch a.obj.Kind {
		case ObjKindString:
			return a.obj == b.obj
		default:
			return a.obj == b.obj
		}
	default:
		return false
	}
}

// String renders the canonical printed form of v: numbers via
// shortest-round-trip formatting, booleans as true/false, nil as nil,
// and strings as their raw bytes without quotes.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boll {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

// formatNumber produces clox's printValue behavior for doubles: the
// shortest decimal string that round-trips, with no synthetic trailing
// zeros and special-cased infinities/NaN.
func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ObjKind discriminates the variants of Obj. Only strings exist today;
// the type is kept open for future object kinds per spec.md's design note
// about extensibility.
type ObjKind uint8

const (
	ObjKindString ObjKind = iota
)

// Obj is the header shared by all heap-allocated objects. Objects form a
// singly linked list (Next) so the VM can walk and free every live object
// at teardown, per spec.md §5.
type Obj struct {
	Kind ObjKind
	Next *Obj

	// Str is populated when Kind == ObjKindString.
	Str ObjString
}

// ObjString is the payload of a string object: length, owned bytes, and a
// precomputed hash used by the intern table.
type ObjString struct {
	Chars string
	Hash  uint32
}

// String renders an object's printed form.
func (o *Obj) String() string {
	switch o.Kind {
	case ObjKindString:
		return o.Str.Chars
	default:
		return "<obj>"
	}
}
