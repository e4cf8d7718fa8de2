package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindFunction
)

// String returns a human-readable name for the kind, used in runtime error
// messages.
func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is the runtime currency of the VM: a closed tagged variant over
// nil, bool, int, float, string, and function. Values flow on the operand
// stack, in constant pools, and in the global table.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	fn   *Function
}

// Nil is the nil value.
var Nil = Value{kind: KindNil}

// BoolValue wraps a Go bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue wraps a Go int64.
func IntValue(n int64) Value { return Value{kind: KindInt, i: n} }

// FloatValue wraps a Go float64.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// StringValue wraps a Go string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// FunctionValue wraps a compiled function.
func FunctionValue(fn *Function) Value { return Value{kind: KindFunction, fn: fn} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Bool returns the bool payload; valid only for KindBool.
func (v Value) Bool() bool { return v.b }

// Int returns the int payload; valid only for KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload; valid only for KindFloat.
func (v Value) Float() float64 { return v.f }

// Str returns the string payload; valid only for KindString.
func (v Value) Str() string { return v.s }

// Fn returns the function payload; valid only for KindFunction.
func (v Value) Fn() *Function { return v.fn }

// AsFloat coerces a numeric value to float64; valid only for numbers.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Truthy reports whether the value counts as true in a condition: nil and
// false are falsy, everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equal reports structural equality: same variant and same payload. Numeric
// cross-variant equality is deliberately not performed; only arithmetic
// coerces. Functions are equal only when they are the same function.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindFunction:
		return v.fn == other.fn
	default:
		return false
	}
}

// String renders the value for program output: nil, true/false, decimal
// int, float with a fractional part, raw string contents.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindFunction:
		return fmt.Sprintf("#<fn %s/%d>", v.fn.Name, v.fn.Arity)
	default:
		return fmt.Sprintf("#<unknown %d>", v.kind)
	}
}

// Inspect renders the value for REPL echo and diagnostics: like String, but
// strings keep their surrounding quotes.
func (v Value) Inspect() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.String()
}

// formatFloat renders a float in its shortest decimal form, always keeping a
// fractional part so 1.0 does not print as an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// Function is a compiled function: a name, a declared parameter count, and
// the chunk holding its body. Functions carry no environment; they see only
// their parameters and the global table.
type Function struct {
	Name  string
	Arity int
	Chunk *Chunk
}
