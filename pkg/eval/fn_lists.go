package eval

import (
	"sort"
	"strings"

	"github.com/noteql/noteql/pkg/value"
)

// registerListFns installs the collection built-ins.
func registerListFns(r *FunctionRegistry) {
	r.Register(NewFunction("contains").
		Vararg(func(ctx *Context, args []value.Value) (value.Value, error) {
			return containsImpl(ctx, args, false, true)
		}))

	r.Register(NewFunction("icontains").
		Vararg(func(ctx *Context, args []value.Value) (value.Value, error) {
			return containsImpl(ctx, args, true, true)
		}))

	// econtains: exact containment, no recursion into nested arrays.
	r.Register(NewFunction("econtains").
		Vararg(func(ctx *Context, args []value.Value) (value.Value, error) {
			return containsImpl(ctx, args, false, false)
		}))

	r.Register(NewFunction("sort").
		Add1(value.KindArray, func(ctx *Context, a value.Value) (value.Value, error) {
			in := a.(value.Array)
			out := make(value.Array, len(in))
			copy(out, in)
			sort.SliceStable(out, func(i, j int) bool {
				return value.CompareWith(out[i], out[j], ctx.Normalize) < 0
			})
			return out, nil
		}))

	r.Register(NewFunction("reverse").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			in := a.(value.Array)
			out := make(value.Array, len(in))
			for i, v := range in {
				out[len(in)-1-i] = v
			}
			return out, nil
		}).
		Add1(value.KindString, func(_ *Context, a value.Value) (value.Value, error) {
			runes := []rune(string(a.(value.String)))
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return value.String(runes), nil
		}))

	r.Register(NewFunction("length").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			return value.Number(len(a.(value.Array))), nil
		}).
		Add1(value.KindObject, func(_ *Context, a value.Value) (value.Value, error) {
			return value.Number(len(a.(value.Object))), nil
		}).
		Add1(value.KindString, func(_ *Context, a value.Value) (value.Value, error) {
			return value.Number(len([]rune(string(a.(value.String))))), nil
		}).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.Number(0), nil
		}))

	r.Register(NewFunction("flat").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			return flatten(a.(value.Array), 1), nil
		}).
		Add2(value.KindArray, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			return flatten(a.(value.Array), int(b.(value.Number))), nil
		}))

	r.Register(NewFunction("slice").
		Add2(value.KindArray, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			return sliceArray(a.(value.Array), int(b.(value.Number)), -1), nil
		}).
		Add3(value.KindArray, value.KindNumber, value.KindNumber,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				return sliceArray(a.(value.Array), int(b.(value.Number)), int(c.(value.Number))), nil
			}))

	r.Register(NewFunction("nonnull").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			return dropNulls(a.(value.Array)), nil
		}).
		Vararg(func(_ *Context, args []value.Value) (value.Value, error) {
			return dropNulls(args), nil
		}))

	r.Register(NewFunction("extract").
		Vararg(extractImpl))
}

// containsImpl implements contains/icontains/econtains. fold controls
// case folding; recurse controls descent into nested arrays.
func containsImpl(ctx *Context, args []value.Value, fold, recurse bool) (value.Value, error) {
	if len(args) != 2 {
		return value.Boolean(false), nil
	}
	haystack, needle := args[0], args[1]

	switch h := haystack.(type) {
	case value.Object:
		if s, ok := needle.(value.String); ok {
			_, present := h[string(s)]
			return value.Boolean(present), nil
		}
	case value.String:
		if s, ok := needle.(value.String); ok {
			a, b := string(h), string(s)
			if fold {
				a, b = strings.ToLower(a), strings.ToLower(b)
			}
			return value.Boolean(strings.Contains(a, b)), nil
		}
	case value.Array:
		for _, el := range h {
			if recurse {
				if _, isArr := el.(value.Array); isArr {
					hit, err := containsImpl(ctx, []value.Value{el, needle}, fold, recurse)
					if err != nil {
						return nil, err
					}
					if hit.Truthy() {
						return value.Boolean(true), nil
					}
					continue
				}
			}
			if valuesEqual(ctx, el, needle, fold) {
				return value.Boolean(true), nil
			}
		}
		return value.Boolean(false), nil
	}

	// Generic fallback: plain equality through the operator registry.
	eq, err := ctx.ops.Apply(ctx, "=", haystack, needle)
	if err != nil {
		return nil, err
	}
	return value.Boolean(eq.Truthy()), nil
}

func valuesEqual(ctx *Context, a, b value.Value, fold bool) bool {
	if fold {
		as, aok := a.(value.String)
		bs, bok := b.(value.String)
		if aok && bok {
			return strings.EqualFold(string(as), string(bs))
		}
	}
	return value.CompareWith(a, b, ctx.Normalize) == 0
}

func flatten(in value.Array, depth int) value.Array {
	out := make(value.Array, 0, len(in))
	for _, v := range in {
		if arr, ok := v.(value.Array); ok && depth > 0 {
			out = append(out, flatten(arr, depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func sliceArray(in value.Array, start, end int) value.Array {
	if start < 0 {
		start = len(in) + start
	}
	if end < 0 {
		if end == -1 {
			end = len(in)
		} else {
			end = len(in) + end + 1
		}
	}
	if start < 0 {
		start = 0
	}
	if end > len(in) {
		end = len(in)
	}
	if start >= end {
		return value.Array{}
	}
	out := make(value.Array, end-start)
	copy(out, in[start:end])
	return out
}

func dropNulls(in []value.Value) value.Array {
	out := make(value.Array, 0, len(in))
	for _, v := range in {
		if v.Kind() != value.KindNull {
			out = append(out, v)
		}
	}
	return out
}

// extractImpl projects named keys out of an object (or each object in
// an array) into a smaller object.
func extractImpl(ctx *Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.NullValue, nil
	}
	target := args[0]
	keys := args[1:]

	if arr, ok := target.(value.Array); ok {
		out := make(value.Array, len(arr))
		for i, el := range arr {
			v, err := extractImpl(ctx, append([]value.Value{el}, keys...))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	out := make(value.Object, len(keys))
	for _, key := range keys {
		s, ok := key.(value.String)
		if !ok {
			continue
		}
		v, err := ctx.indexInto(target, s)
		if err != nil {
			v = value.NullValue
		}
		out[string(s)] = v
	}
	return out, nil
}
