package eval

import (
	"regexp"
	"strings"

	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// registerStringFns installs the string built-ins.
func registerStringFns(r *FunctionRegistry) {
	str1 := func(name string, impl func(string) string) {
		r.Register(NewFunction(name).
			Vectorize(1, 0).
			Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
				return value.NullValue, nil
			}).
			Add1(value.KindString, func(_ *Context, a value.Value) (value.Value, error) {
				return value.String(impl(string(a.(value.String)))), nil
			}))
	}

	str1("lower", strings.ToLower)
	str1("upper", strings.ToUpper)
	str1("trim", strings.TrimSpace)

	r.Register(NewFunction("string").
		Vectorize(1, 0).
		Vararg(func(_ *Context, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, types.EvalError(types.ErrArgumentCount, "string() takes one argument")
			}
			return value.String(value.ToString(args[0])), nil
		}))

	r.Register(NewFunction("replace").
		Vectorize(3, 0).
		Add3(value.KindString, value.KindString, value.KindString,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				return value.String(strings.ReplaceAll(
					string(a.(value.String)), string(b.(value.String)), string(c.(value.String)))), nil
			}))

	r.Register(NewFunction("split").
		Add2(value.KindString, value.KindString, func(_ *Context, a, b value.Value) (value.Value, error) {
			parts := strings.Split(string(a.(value.String)), string(b.(value.String)))
			out := make(value.Array, len(parts))
			for i, part := range parts {
				out[i] = value.String(part)
			}
			return out, nil
		}))

	r.Register(NewFunction("startswith").
		Vectorize(2, 0).
		Add2(value.KindString, value.KindString, func(_ *Context, a, b value.Value) (value.Value, error) {
			return value.Boolean(strings.HasPrefix(string(a.(value.String)), string(b.(value.String)))), nil
		}))

	r.Register(NewFunction("endswith").
		Vectorize(2, 0).
		Add2(value.KindString, value.KindString, func(_ *Context, a, b value.Value) (value.Value, error) {
			return value.Boolean(strings.HasSuffix(string(a.(value.String)), string(b.(value.String)))), nil
		}))

	r.Register(NewFunction("padleft").
		Add2(value.KindString, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			return value.String(pad(string(a.(value.String)), int(b.(value.Number)), " ", true)), nil
		}).
		Add3(value.KindString, value.KindNumber, value.KindString,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				return value.String(pad(string(a.(value.String)), int(b.(value.Number)), string(c.(value.String)), true)), nil
			}))

	r.Register(NewFunction("padright").
		Add2(value.KindString, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			return value.String(pad(string(a.(value.String)), int(b.(value.Number)), " ", false)), nil
		}).
		Add3(value.KindString, value.KindNumber, value.KindString,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				return value.String(pad(string(a.(value.String)), int(b.(value.Number)), string(c.(value.String)), false)), nil
			}))

	r.Register(NewFunction("substring").
		Add2(value.KindString, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			return value.String(substring(string(a.(value.String)), int(b.(value.Number)), -1)), nil
		}).
		Add3(value.KindString, value.KindNumber, value.KindNumber,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				return value.String(substring(string(a.(value.String)), int(b.(value.Number)), int(c.(value.Number)))), nil
			}))

	r.Register(NewFunction("regexmatch").
		Add2(value.KindString, value.KindString, func(_ *Context, a, b value.Value) (value.Value, error) {
			re, err := regexp.Compile(string(a.(value.String)))
			if err != nil {
				return nil, types.EvalError(types.ErrFunctionFailed, "Invalid pattern: %v", err).WithCause(err)
			}
			return value.Boolean(re.MatchString(string(b.(value.String)))), nil
		}))

	r.Register(NewFunction("regexreplace").
		Add3(value.KindString, value.KindString, value.KindString,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				re, err := regexp.Compile(string(b.(value.String)))
				if err != nil {
					return nil, types.EvalError(types.ErrFunctionFailed, "Invalid pattern: %v", err).WithCause(err)
				}
				return value.String(re.ReplaceAllString(string(a.(value.String)), string(c.(value.String)))), nil
			}))

	r.Register(NewFunction("truncate").
		Add2(value.KindString, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
			return value.String(truncate(string(a.(value.String)), int(b.(value.Number)), "...")), nil
		}).
		Add3(value.KindString, value.KindNumber, value.KindString,
			func(_ *Context, a, b, c value.Value) (value.Value, error) {
				return value.String(truncate(string(a.(value.String)), int(b.(value.Number)), string(c.(value.String)))), nil
			}))

	r.Register(NewFunction("join").
		Add1(value.KindArray, func(_ *Context, a value.Value) (value.Value, error) {
			return joinArray(a.(value.Array), ", "), nil
		}).
		Add2(value.KindArray, value.KindString, func(_ *Context, a, b value.Value) (value.Value, error) {
			return joinArray(a.(value.Array), string(b.(value.String))), nil
		}))
}

func joinArray(values value.Array, sep string) value.Value {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = value.ToString(v)
	}
	return value.String(strings.Join(parts, sep))
}

func pad(s string, width int, fill string, left bool) string {
	if fill == "" {
		fill = " "
	}
	for len([]rune(s)) < width {
		if left {
			s = fill + s
		} else {
			s += fill
		}
	}
	return s
}

// truncate shortens a string to width runes, replacing the cut tail
// with the suffix. Strings already within the width pass through.
func truncate(s string, width int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	keep := width - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + suffix
}

func substring(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end < 0 || end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
