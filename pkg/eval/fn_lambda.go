package eval

import (
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// registerLambdaFns installs the higher-order built-ins.
func registerLambdaFns(r *FunctionRegistry) {
	r.Register(NewFunction("any").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			for _, v := range a.(value.Array) {
				if v.Truthy() {
					return value.Boolean(true), nil
				}
			}
			return value.Boolean(false), nil
		}).
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			return quantify(ctx, a.(value.Array), f.(*value.Function), func(hits, total int) bool {
				return hits > 0
			})
		}))

	r.Register(NewFunction("all").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			for _, v := range a.(value.Array) {
				if !v.Truthy() {
					return value.Boolean(false), nil
				}
			}
			return value.Boolean(true), nil
		}).
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			return quantify(ctx, a.(value.Array), f.(*value.Function), func(hits, total int) bool {
				return hits == total
			})
		}))

	r.Register(NewFunction("none").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			for _, v := range a.(value.Array) {
				if v.Truthy() {
					return value.Boolean(false), nil
				}
			}
			return value.Boolean(true), nil
		}).
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			return quantify(ctx, a.(value.Array), f.(*value.Function), func(hits, total int) bool {
				return hits == 0
			})
		}))

	r.Register(NewFunction("filter").
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			in := a.(value.Array)
			fn := f.(*value.Function)
			out := make(value.Array, 0, len(in))
			for _, v := range in {
				keep, err := callLambda(ctx, fn, []value.Value{v})
				if err != nil {
					return nil, err
				}
				if keep.Truthy() {
					out = append(out, v)
				}
			}
			return out, nil
		}))

	r.Register(NewFunction("map").
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			in := a.(value.Array)
			fn := f.(*value.Function)
			out := make(value.Array, len(in))
			for i, v := range in {
				mapped, err := callLambda(ctx, fn, []value.Value{v})
				if err != nil {
					return nil, err
				}
				out[i] = mapped
			}
			return out, nil
		}))

	r.Register(NewFunction("reduce").
		Add2(value.KindArray, value.KindString, func(ctx *Context, a, op value.Value) (value.Value, error) {
			return foldOp(ctx, a.(value.Array), string(op.(value.String)))
		}).
		Add2(value.KindArray, value.KindFunction, func(ctx *Context, a, f value.Value) (value.Value, error) {
			fn := f.(*value.Function)
			var acc value.Value
			for _, v := range a.(value.Array) {
				if v.Kind() == value.KindNull {
					continue
				}
				if acc == nil {
					acc = v
					continue
				}
				next, err := callLambda(ctx, fn, []value.Value{acc, v})
				if err != nil {
					return nil, err
				}
				acc = next
			}
			if acc == nil {
				return value.NullValue, nil
			}
			return acc, nil
		}).
		Vararg(func(_ *Context, args []value.Value) (value.Value, error) {
			return nil, types.EvalError(types.ErrNoOverload,
				"reduce takes an array and an operator string or function")
		}))
}

func quantify(ctx *Context, in value.Array, fn *value.Function, accept func(hits, total int) bool) (value.Value, error) {
	hits := 0
	for _, v := range in {
		hit, err := callLambda(ctx, fn, []value.Value{v})
		if err != nil {
			return nil, err
		}
		if hit.Truthy() {
			hits++
		}
	}
	return value.Boolean(accept(hits, len(in))), nil
}
