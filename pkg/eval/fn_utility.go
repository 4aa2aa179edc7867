package eval

import (
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// registerUtility installs the null-handling and introspection
// built-ins.
func registerUtility(r *FunctionRegistry) {
	// default broadcasts over array values; ldefault is the
	// non-vectorized variant for defaulting a whole array at once.
	r.Register(NewFunction("default").
		Vectorize(2, 0).
		Add2(AnyKind, AnyKind, defaultImpl))

	r.Register(NewFunction("ldefault").
		Add2(AnyKind, AnyKind, defaultImpl))

	r.Register(NewFunction("choice").
		Add3(AnyKind, AnyKind, AnyKind, func(_ *Context, cond, a, b value.Value) (value.Value, error) {
			if cond.Truthy() {
				return a, nil
			}
			return b, nil
		}))

	// meta exposes a link's attributes as a plain object, so display
	// text and subsections are reachable from expressions even though
	// they never participate in link equality.
	r.Register(NewFunction("meta").
		Add1(value.KindLink, func(_ *Context, a value.Value) (value.Value, error) {
			link := a.(value.Link)
			out := value.Object{
				"path":    value.String(link.Path),
				"embed":   value.Boolean(link.Embed),
				"type":    value.String(link.Sub.String()),
				"display": value.NullValue,
				"subpath": value.NullValue,
			}
			if link.Display != "" {
				out["display"] = value.String(link.Display)
			}
			if link.SubID != "" {
				out["subpath"] = value.String(link.SubID)
			}
			return out, nil
		}))

	r.Register(NewFunction("typeof").
		Vararg(func(_ *Context, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, types.EvalError(types.ErrArgumentCount, "typeof() takes one argument")
			}
			return value.String(args[0].Kind().String()), nil
		}))
}

func defaultImpl(_ *Context, v, fallback value.Value) (value.Value, error) {
	if v.Kind() == value.KindNull {
		return fallback, nil
	}
	return v, nil
}
