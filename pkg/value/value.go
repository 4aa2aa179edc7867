// Package value implements the literal value model of the noteql
// expression language.
//
// Every value that flows through the parser, evaluator and query
// pipeline is a Value: a member of a closed set of kinds
// (null, boolean, number, string, date, duration, link, array, object,
// task, function). Each kind defines its own truthiness, participates
// in a single total order (see Compare) and has a Markdown-friendly
// string rendering (see ToString).
//
// Values are tree shaped: arrays and objects may nest arbitrarily but
// must never form cycles. Producers are responsible for guaranteeing
// acyclic data.
package value

import "time"

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindDate
	KindDuration
	KindLink
	KindArray
	KindObject
	KindTask
	KindFunction
)

// String returns the kind name. Kind names are part of the language
// surface: cross-kind ordering compares them lexicographically, and
// typeof() exposes them to expressions.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindDuration:
		return "duration"
	case KindLink:
		return "link"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindTask:
		return "task"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is the closed union of literal values.
//
// The concrete types are Null, Boolean, Number, String, Date, Duration,
// Link, Array, Object, *Task and *Function. No other implementations
// exist; consumers may switch exhaustively on Kind().
type Value interface {
	// Kind returns the variant tag of this value.
	Kind() Kind
	// Truthy reports whether the value is considered true in a boolean
	// context (where-clauses, negation, and/or operators).
	Truthy() bool
}

// Null is the null literal, distinct from an absent Go nil.
type Null struct{}

// NullValue is the singleton used for every null in the engine.
var NullValue = Null{}

func (Null) Kind() Kind   { return KindNull }
func (Null) Truthy() bool { return false }

// Boolean is a boolean literal.
type Boolean bool

func (b Boolean) Kind() Kind   { return KindBoolean }
func (b Boolean) Truthy() bool { return bool(b) }

// Number is a numeric literal. All numbers are float64, matching the
// language's single numeric type.
type Number float64

func (n Number) Kind() Kind   { return KindNumber }
func (n Number) Truthy() bool { return n != 0 }

// String is a string literal.
type String string

func (s String) Kind() Kind   { return KindString }
func (s String) Truthy() bool { return len(s) > 0 }

// Date is a point in time. The zero Date is falsy; any other date is
// truthy.
type Date struct {
	time.Time
}

// NewDate wraps a time.Time as a Date value.
func NewDate(t time.Time) Date { return Date{Time: t} }

func (d Date) Kind() Kind   { return KindDate }
func (d Date) Truthy() bool { return !d.IsZero() }

// HasTime reports whether the date carries a non-midnight time of day.
// Rendering uses this to pick between date-only and date-time formats.
func (d Date) HasTime() bool {
	h, m, s := d.Clock()
	return h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0
}

// Array is an ordered sequence of values.
type Array []Value

func (a Array) Kind() Kind   { return KindArray }
func (a Array) Truthy() bool { return len(a) > 0 }

// Object is a string-keyed mapping of values.
type Object map[string]Value

func (o Object) Kind() Kind   { return KindObject }
func (o Object) Truthy() bool { return len(o) > 0 }

// Get returns the value bound to key, or NullValue when absent.
func (o Object) Get(key string) Value {
	if v, ok := o[key]; ok && v != nil {
		return v
	}
	return NullValue
}

// Function is a lambda value: named parameters, a body expression and
// the bindings captured at the point of definition. The body is an
// opaque *types.FieldNode; it is stored as any to keep this package
// free of an AST dependency. Only the evaluator constructs and invokes
// Functions.
type Function struct {
	Params   []string
	Body     any
	Captured map[string]Value
}

func (f *Function) Kind() Kind   { return KindFunction }
func (f *Function) Truthy() bool { return true }

// DeepCopy recursively clones arrays and objects. Scalars and opaque
// values (dates, durations, links, tasks, functions) are returned
// as-is; they are immutable by convention.
func DeepCopy(v Value) Value {
	switch t := v.(type) {
	case Array:
		out := make(Array, len(t))
		for i, el := range t {
			out[i] = DeepCopy(el)
		}
		return out
	case Object:
		out := make(Object, len(t))
		for k, el := range t {
			out[k] = DeepCopy(el)
		}
		return out
	default:
		return v
	}
}
