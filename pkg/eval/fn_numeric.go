package eval

import (
	"math"
	"regexp"
	"strconv"

	"github.com/noteql/noteql/pkg/value"
)

var leadingNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)

// registerNumeric installs the numeric built-ins.
func registerNumeric(r *FunctionRegistry) {
	r.Register(NewFunction("number").
		Vectorize(1, 0).
		Add1(value.KindNumber, func(_ *Context, a value.Value) (value.Value, error) {
			return a, nil
		}).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.NullValue, nil
		}).
		Add1(value.KindBoolean, func(_ *Context, a value.Value) (value.Value, error) {
			if a.Truthy() {
				return value.Number(1), nil
			}
			return value.Number(0), nil
		}).
		Add1(value.KindString, func(_ *Context, a value.Value) (value.Value, error) {
			m := leadingNumber.FindString(string(a.(value.String)))
			if m == "" {
				return value.NullValue, nil
			}
			n, err := strconv.ParseFloat(m, 64)
			if err != nil {
				return value.NullValue, nil
			}
			return value.Number(n), nil
		}))

	r.Register(NewFunction("round").
		Vectorize(1, 0).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.NullValue, nil
		}).
		Add1(value.KindNumber, func(_ *Context, a value.Value) (value.Value, error) {
			return value.Number(math.Round(float64(a.(value.Number)))), nil
		}).
		Add2(value.KindNumber, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			scale := math.Pow(10, float64(b.(value.Number)))
			return value.Number(math.Round(float64(a.(value.Number))*scale) / scale), nil
		}))

	r.Register(NewFunction("min").
		Add1(value.KindArray, func(ctx *Context, a value.Value) (value.Value, error) {
			return pickExtreme(ctx, a.(value.Array), -1), nil
		}).
		Vararg(func(ctx *Context, args []value.Value) (value.Value, error) {
			return pickExtreme(ctx, args, -1), nil
		}))

	r.Register(NewFunction("max").
		Add1(value.KindArray, func(ctx *Context, a value.Value) (value.Value, error) {
			return pickExtreme(ctx, a.(value.Array), 1), nil
		}).
		Vararg(func(ctx *Context, args []value.Value) (value.Value, error) {
			return pickExtreme(ctx, args, 1), nil
		}))

	r.Register(NewFunction("minby").
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			return pickExtremeBy(ctx, a.(value.Array), f.(*value.Function), -1)
		}))

	r.Register(NewFunction("maxby").
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			return pickExtremeBy(ctx, a.(value.Array), f.(*value.Function), 1)
		}))

	r.Register(NewFunction("sum").
		Add1(value.KindArray, func(ctx *Context, a value.Value) (value.Value, error) {
			return foldOp(ctx, a.(value.Array), "+")
		}))

	r.Register(NewFunction("product").
		Add1(value.KindArray, func(ctx *Context, a value.Value) (value.Value, error) {
			return foldOp(ctx, a.(value.Array), "*")
		}))
}

// pickExtreme returns the smallest (sign -1) or largest (sign 1) value
// under the total order, ignoring nulls. Null when nothing remains.
func pickExtreme(ctx *Context, values []value.Value, sign int) value.Value {
	var best value.Value
	for _, v := range values {
		if v.Kind() == value.KindNull {
			continue
		}
		if best == nil || sign*value.CompareWith(v, best, ctx.Normalize) > 0 {
			best = v
		}
	}
	if best == nil {
		return value.NullValue
	}
	return best
}

// pickExtremeBy is pickExtreme keyed through a lambda.
func pickExtremeBy(ctx *Context, values value.Array, fn *value.Function, sign int) (value.Value, error) {
	var best, bestKey value.Value
	for _, v := range values {
		key, err := callLambda(ctx, fn, []value.Value{v})
		if err != nil {
			return nil, err
		}
		if key.Kind() == value.KindNull {
			continue
		}
		if best == nil || sign*value.CompareWith(key, bestKey, ctx.Normalize) > 0 {
			best, bestKey = v, key
		}
	}
	if best == nil {
		return value.NullValue, nil
	}
	return best, nil
}

// foldOp folds an array left-to-right through a binary operator,
// skipping nulls. Null for an empty fold.
func foldOp(ctx *Context, values value.Array, op string) (value.Value, error) {
	var acc value.Value
	for _, v := range values {
		if v.Kind() == value.KindNull {
			continue
		}
		if acc == nil {
			acc = v
			continue
		}
		next, err := ctx.ops.Apply(ctx, op, acc, v)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	if acc == nil {
		return value.NullValue, nil
	}
	return acc, nil
}
