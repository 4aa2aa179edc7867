package eval

import (
	"math"
	"strings"

	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// AnyKind is the wildcard kind usable on either side of an operator
// registration. It matches every runtime kind during lookup.
const AnyKind = value.Kind(0xFF)

// BinaryFunc implements one binary operator for one kind pairing.
type BinaryFunc func(ctx *Context, left, right value.Value) (value.Value, error)

type opKey struct {
	left  value.Kind
	op    string
	right value.Kind
}

// OperatorRegistry dispatches binary operators by the runtime kinds of
// both operands. Registries are injected into contexts rather than
// shared globally, so hosts can extend or replace the operator table.
type OperatorRegistry struct {
	entries map[opKey]BinaryFunc
}

// NewOperatorRegistry creates an empty registry.
func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{entries: map[opKey]BinaryFunc{}}
}

// Register installs an implementation for (left, op, right). Either
// side may be AnyKind.
func (r *OperatorRegistry) Register(left value.Kind, op string, right value.Kind, fn BinaryFunc) {
	r.entries[opKey{left: left, op: op, right: right}] = fn
}

// RegisterComm installs fn for (left, op, right) and its flipped form
// for (right, op, left), swapping the arguments. For commutative
// pairings only one direction's logic needs writing.
func (r *OperatorRegistry) RegisterComm(left value.Kind, op string, right value.Kind, fn BinaryFunc) {
	r.Register(left, op, right, fn)
	r.Register(right, op, left, func(ctx *Context, l, rv value.Value) (value.Value, error) {
		return fn(ctx, rv, l)
	})
}

// Lookup finds the implementation for (left, op, right). Fallback
// order: exact, (left, op, *), (*, op, right), (*, op, *).
func (r *OperatorRegistry) Lookup(left value.Kind, op string, right value.Kind) (BinaryFunc, bool) {
	if fn, ok := r.entries[opKey{left: left, op: op, right: right}]; ok {
		return fn, true
	}
	if fn, ok := r.entries[opKey{left: left, op: op, right: AnyKind}]; ok {
		return fn, true
	}
	if fn, ok := r.entries[opKey{left: AnyKind, op: op, right: right}]; ok {
		return fn, true
	}
	if fn, ok := r.entries[opKey{left: AnyKind, op: op, right: AnyKind}]; ok {
		return fn, true
	}
	return nil, false
}

// Apply dispatches op over two evaluated operands.
func (r *OperatorRegistry) Apply(ctx *Context, op string, left, right value.Value) (value.Value, error) {
	fn, ok := r.Lookup(left.Kind(), op, right.Kind())
	if !ok {
		return nil, types.EvalError(types.ErrNoOperator,
			"No implementation of '%s' between %s and %s", op, left.Kind(), right.Kind())
	}
	return fn(ctx, left, right)
}

// comparisonOps derives all six comparison operators from one ternary
// comparison and installs them under the wildcard kind pairing, so the
// value-model total order applies between any two kinds unless a more
// specific entry overrides it.
func (r *OperatorRegistry) registerComparisons(cmp func(ctx *Context, a, b value.Value) int) {
	install := func(op string, accept func(int) bool) {
		r.Register(AnyKind, op, AnyKind, func(ctx *Context, l, rv value.Value) (value.Value, error) {
			return value.Boolean(accept(cmp(ctx, l, rv))), nil
		})
	}
	install("=", func(c int) bool { return c == 0 })
	install("!=", func(c int) bool { return c != 0 })
	install("<", func(c int) bool { return c < 0 })
	install("<=", func(c int) bool { return c <= 0 })
	install(">", func(c int) bool { return c > 0 })
	install(">=", func(c int) bool { return c >= 0 })
}

// DefaultOperators builds the standard operator table.
func DefaultOperators() *OperatorRegistry {
	r := NewOperatorRegistry()

	registerArithmetic(r)
	registerStrings(r)
	registerTemporal(r)
	registerCollections(r)
	registerLogic(r)

	r.registerComparisons(func(ctx *Context, a, b value.Value) int {
		return value.CompareWith(a, b, ctx.Normalize)
	})

	return r
}

func registerArithmetic(r *OperatorRegistry) {
	num := func(fn func(a, b float64) (float64, error)) BinaryFunc {
		return func(_ *Context, l, rv value.Value) (value.Value, error) {
			n, err := fn(float64(l.(value.Number)), float64(rv.(value.Number)))
			if err != nil {
				return nil, err
			}
			return value.Number(n), nil
		}
	}

	r.Register(value.KindNumber, "+", value.KindNumber, num(func(a, b float64) (float64, error) { return a + b, nil }))
	r.Register(value.KindNumber, "-", value.KindNumber, num(func(a, b float64) (float64, error) { return a - b, nil }))
	r.Register(value.KindNumber, "*", value.KindNumber, num(func(a, b float64) (float64, error) { return a * b, nil }))
	r.Register(value.KindNumber, "/", value.KindNumber, num(func(a, b float64) (float64, error) { return a / b, nil }))
	r.Register(value.KindNumber, "%", value.KindNumber, num(func(a, b float64) (float64, error) { return math.Mod(a, b), nil }))

	// Arithmetic over null propagates null instead of failing; missing
	// fields are routine in heterogeneous documents.
	for _, op := range []string{"+", "-", "*", "/", "%"} {
		r.Register(value.KindNull, op, AnyKind, nullResult)
		r.Register(AnyKind, op, value.KindNull, nullResult)
	}
}

func nullResult(_ *Context, _, _ value.Value) (value.Value, error) {
	return value.NullValue, nil
}

func registerStrings(r *OperatorRegistry) {
	// Concatenation with any value on the other side renders that value.
	r.Register(value.KindString, "+", AnyKind, func(_ *Context, l, rv value.Value) (value.Value, error) {
		if rv.Kind() == value.KindNull {
			return value.NullValue, nil
		}
		return value.String(string(l.(value.String)) + value.ToString(rv)), nil
	})
	r.Register(AnyKind, "+", value.KindString, func(_ *Context, l, rv value.Value) (value.Value, error) {
		if l.Kind() == value.KindNull {
			return value.NullValue, nil
		}
		return value.String(value.ToString(l) + string(rv.(value.String))), nil
	})

	r.RegisterComm(value.KindString, "*", value.KindNumber, func(_ *Context, l, rv value.Value) (value.Value, error) {
		n := int(rv.(value.Number))
		if n <= 0 {
			return value.String(""), nil
		}
		return value.String(strings.Repeat(string(l.(value.String)), n)), nil
	})
}

func registerTemporal(r *OperatorRegistry) {
	r.Register(value.KindDate, "-", value.KindDate, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return value.DurationBetween(l.(value.Date), rv.(value.Date)), nil
	})
	r.RegisterComm(value.KindDate, "+", value.KindDuration, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return rv.(value.Duration).AddToDate(l.(value.Date)), nil
	})
	r.Register(value.KindDate, "-", value.KindDuration, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return rv.(value.Duration).Scale(-1).AddToDate(l.(value.Date)), nil
	})

	r.Register(value.KindDuration, "+", value.KindDuration, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return l.(value.Duration).Add(rv.(value.Duration)), nil
	})
	r.Register(value.KindDuration, "-", value.KindDuration, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return l.(value.Duration).Sub(rv.(value.Duration)), nil
	})
	r.RegisterComm(value.KindDuration, "*", value.KindNumber, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return l.(value.Duration).Scale(float64(rv.(value.Number))), nil
	})
	r.Register(value.KindDuration, "/", value.KindNumber, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return l.(value.Duration).Scale(1 / float64(rv.(value.Number))), nil
	})
}

func registerCollections(r *OperatorRegistry) {
	r.Register(value.KindArray, "+", value.KindArray, func(_ *Context, l, rv value.Value) (value.Value, error) {
		a, b := l.(value.Array), rv.(value.Array)
		out := make(value.Array, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return out, nil
	})

	// Object merge: right side wins on key collisions.
	r.Register(value.KindObject, "+", value.KindObject, func(_ *Context, l, rv value.Value) (value.Value, error) {
		a, b := l.(value.Object), rv.(value.Object)
		out := make(value.Object, len(a)+len(b))
		for k, v := range a {
			out[k] = v
		}
		for k, v := range b {
			out[k] = v
		}
		return out, nil
	})
}

func registerLogic(r *OperatorRegistry) {
	r.Register(AnyKind, "&", AnyKind, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return value.Boolean(l.Truthy() && rv.Truthy()), nil
	})
	r.Register(AnyKind, "|", AnyKind, func(_ *Context, l, rv value.Value) (value.Value, error) {
		return value.Boolean(l.Truthy() || rv.Truthy()), nil
	})
}
