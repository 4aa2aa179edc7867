package eval

import (
	"testing"

	"github.com/noteql/noteql/pkg/parser"
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

func mustFieldNode(t *testing.T, text string) *types.FieldNode {
	t.Helper()
	node, err := parser.ParseField(text)
	if err != nil {
		t.Fatalf("ParseField(%q) failed: %v", text, err)
	}
	return node
}

func call(t *testing.T, ctx *Context, name string, args ...value.Value) value.Value {
	t.Helper()
	v, err := ctx.Functions().Call(ctx, name, args)
	if err != nil {
		t.Fatalf("%s(%v) failed: %v", name, args, err)
	}
	return v
}

func TestVectorization(t *testing.T) {
	ctx := NewContext()

	t.Run("round broadcasts over arrays", func(t *testing.T) {
		got := call(t, ctx, "round", value.Array{value.Number(1.2), value.Number(2.7)})
		want := value.Array{value.Number(1), value.Number(3)}
		if value.Compare(got, want) != 0 {
			t.Errorf("round([1.2, 2.7]) = %v, want %v", got, want)
		}
	})

	t.Run("scalar calls stay scalar", func(t *testing.T) {
		got := call(t, ctx, "round", value.Number(1.5))
		if value.Compare(got, value.Number(2)) != 0 {
			t.Errorf("round(1.5) = %v, want 2", got)
		}
	})

	t.Run("mismatched arrays truncate to the shortest", func(t *testing.T) {
		pairsum := NewFunction("pairsum").
			Vectorize(2, 0, 1).
			Add2(value.KindNumber, value.KindNumber, func(_ *Context, a, b value.Value) (value.Value, error) {
				return value.Number(a.(value.Number) + b.(value.Number)), nil
			})
		r := NewFunctionRegistry()
		r.Register(pairsum)

		got, err := r.Call(ctx, "pairsum",
			[]value.Value{
				value.Array{value.Number(1), value.Number(2), value.Number(3)},
				value.Array{value.Number(10)},
			})
		if err != nil {
			t.Fatalf("pairsum failed: %v", err)
		}
		want := value.Array{value.Number(11)}
		if value.Compare(got, want) != 0 {
			t.Errorf("pairsum over [3]x[1] arrays = %v, want %v", got, want)
		}
	})

	t.Run("scalar argument broadcasts against an array", func(t *testing.T) {
		got := call(t, ctx, "default",
			value.Array{value.NullValue, value.Number(2)},
			value.Number(9))
		want := value.Array{value.Number(9), value.Number(2)}
		if value.Compare(got, want) != 0 {
			t.Errorf("default([null, 2], 9) = %v, want %v", got, want)
		}
	})
}

func TestOverloadDispatch(t *testing.T) {
	ctx := NewContext()

	t.Run("first structural match wins", func(t *testing.T) {
		f := NewFunction("pick").
			Add1(value.KindNumber, func(_ *Context, _ value.Value) (value.Value, error) {
				return value.String("typed"), nil
			}).
			Add1(AnyKind, func(_ *Context, _ value.Value) (value.Value, error) {
				return value.String("wild"), nil
			})
		r := NewFunctionRegistry()
		r.Register(f)

		got, err := r.Call(ctx, "pick", []value.Value{value.Number(1)})
		if err != nil || got != value.String("typed") {
			t.Errorf("pick(1) = %v, %v; want typed", got, err)
		}
		got, err = r.Call(ctx, "pick", []value.Value{value.Boolean(true)})
		if err != nil || got != value.String("wild") {
			t.Errorf("pick(true) = %v, %v; want wild", got, err)
		}
	})

	t.Run("no match without vararg fails", func(t *testing.T) {
		f := NewFunction("strict").
			Add1(value.KindNumber, func(_ *Context, a value.Value) (value.Value, error) {
				return a, nil
			})
		r := NewFunctionRegistry()
		r.Register(f)

		if _, err := r.Call(ctx, "strict", []value.Value{value.String("x")}); err == nil {
			t.Error("mismatched call must fail")
		}
	})

	t.Run("implementation panic becomes an error", func(t *testing.T) {
		f := NewFunction("boom").
			Add1(AnyKind, func(_ *Context, _ value.Value) (value.Value, error) {
				panic("kaboom")
			})
		r := NewFunctionRegistry()
		r.Register(f)

		_, err := r.Call(ctx, "boom", []value.Value{value.Number(1)})
		if err == nil {
			t.Fatal("panicking implementation must return an error")
		}
	})
}

func TestBuiltins(t *testing.T) {
	ctx := NewContext()
	arr := func(vs ...value.Value) value.Array { return value.Array(vs) }

	tests := []struct {
		name string
		fn   string
		args []value.Value
		want value.Value
	}{
		{"number from string", "number", []value.Value{value.String("rated 4.5 stars")}, value.Number(4.5)},
		{"number no digits", "number", []value.Value{value.String("none")}, value.NullValue},
		{"round precision", "round", []value.Value{value.Number(3.14159), value.Number(2)}, value.Number(3.14)},
		{"min vararg", "min", []value.Value{value.Number(3), value.Number(1), value.Number(2)}, value.Number(1)},
		{"max of array", "max", []value.Value{arr(value.Number(3), value.Number(9))}, value.Number(9)},
		{"min skips nulls", "min", []value.Value{arr(value.NullValue, value.Number(2))}, value.Number(2)},
		{"sum", "sum", []value.Value{arr(value.Number(1), value.Number(2), value.Number(3))}, value.Number(6)},
		{"sum skips nulls", "sum", []value.Value{arr(value.Number(1), value.NullValue)}, value.Number(1)},
		{"sum of empty is null", "sum", []value.Value{arr()}, value.NullValue},
		{"product", "product", []value.Value{arr(value.Number(2), value.Number(3))}, value.Number(6)},
		{"contains substring", "contains", []value.Value{value.String("hello"), value.String("ell")}, value.Boolean(true)},
		{"icontains folds case", "icontains", []value.Value{value.String("Hello"), value.String("hELL")}, value.Boolean(true)},
		{"contains array element", "contains", []value.Value{arr(value.Number(1), value.Number(2)), value.Number(2)}, value.Boolean(true)},
		{"contains recurses into nested arrays", "contains",
			[]value.Value{arr(arr(value.Number(1))), value.Number(1)}, value.Boolean(true)},
		{"econtains does not recurse", "econtains",
			[]value.Value{arr(arr(value.Number(1))), value.Number(1)}, value.Boolean(false)},
		{"contains object key", "contains",
			[]value.Value{value.Object{"a": value.Number(1)}, value.String("a")}, value.Boolean(true)},
		{"sort", "sort", []value.Value{arr(value.Number(3), value.Number(1))}, arr(value.Number(1), value.Number(3))},
		{"reverse", "reverse", []value.Value{arr(value.Number(1), value.Number(2))}, arr(value.Number(2), value.Number(1))},
		{"length of array", "length", []value.Value{arr(value.Number(1))}, value.Number(1)},
		{"length of null", "length", []value.Value{value.NullValue}, value.Number(0)},
		{"join", "join", []value.Value{arr(value.Number(1), value.Number(2)), value.String("-")}, value.String("1-2")},
		{"reduce with operator", "reduce", []value.Value{arr(value.Number(2), value.Number(5)), value.String("+")}, value.Number(7)},
		{"default on null", "default", []value.Value{value.NullValue, value.Number(9)}, value.Number(9)},
		{"default passthrough", "default", []value.Value{value.Number(1), value.Number(9)}, value.Number(1)},
		{"ldefault keeps arrays whole", "ldefault", []value.Value{arr(value.NullValue), value.Number(9)}, arr(value.NullValue)},
		{"choice true", "choice", []value.Value{value.Boolean(true), value.String("a"), value.String("b")}, value.String("a")},
		{"choice falsy", "choice", []value.Value{value.Number(0), value.String("a"), value.String("b")}, value.String("b")},
		{"typeof", "typeof", []value.Value{value.Duration{Days: 1}}, value.String("duration")},
		{"flat", "flat", []value.Value{arr(arr(value.Number(1)), value.Number(2))}, arr(value.Number(1), value.Number(2))},
		{"nonnull", "nonnull", []value.Value{arr(value.NullValue, value.Number(1))}, arr(value.Number(1))},
		{"lower", "lower", []value.Value{value.String("ABC")}, value.String("abc")},
		{"split", "split", []value.Value{value.String("a,b"), value.String(",")}, arr(value.String("a"), value.String("b"))},
		{"substring", "substring", []value.Value{value.String("abcdef"), value.Number(1), value.Number(3)}, value.String("bc")},
		{"regexmatch", "regexmatch", []value.Value{value.String(`^\d+$`), value.String("123")}, value.Boolean(true)},
		{"dur from text", "dur", []value.Value{value.String("1 hr, 30 mins")}, value.Duration{Hours: 1, Minutes: 30}},
		{"truncate long string", "truncate", []value.Value{value.String("abcdefgh"), value.Number(5)}, value.String("ab...")},
		{"truncate short string passes through", "truncate", []value.Value{value.String("abc"), value.Number(5)}, value.String("abc")},
		{"truncate custom suffix", "truncate",
			[]value.Value{value.String("abcdefgh"), value.Number(5), value.String("~")}, value.String("abcd~")},
		{"meta of a link", "meta",
			[]value.Value{value.HeaderLink("games/hive.md", "Rules").WithDisplay("rules")},
			value.Object{
				"path":    value.String("games/hive.md"),
				"embed":   value.Boolean(false),
				"type":    value.String("header"),
				"display": value.String("rules"),
				"subpath": value.String("Rules"),
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, ctx, tt.fn, tt.args...)
			if value.Compare(got, tt.want) != 0 {
				t.Errorf("%s(%v) = %v, want %v", tt.fn, tt.args, got, tt.want)
			}
		})
	}
}

func TestLambdaBuiltins(t *testing.T) {
	ctx := NewContext()

	double := &value.Function{Params: []string{"x"}, Body: mustFieldNode(t, "x * 2")}
	isBig := &value.Function{Params: []string{"x"}, Body: mustFieldNode(t, "x > 10")}

	in := value.Array{value.Number(5), value.Number(20)}

	t.Run("map", func(t *testing.T) {
		got := call(t, ctx, "map", in, double)
		want := value.Array{value.Number(10), value.Number(40)}
		if value.Compare(got, want) != 0 {
			t.Errorf("map = %v, want %v", got, want)
		}
	})

	t.Run("filter", func(t *testing.T) {
		got := call(t, ctx, "filter", in, isBig)
		want := value.Array{value.Number(20)}
		if value.Compare(got, want) != 0 {
			t.Errorf("filter = %v, want %v", got, want)
		}
	})

	t.Run("any all none", func(t *testing.T) {
		if got := call(t, ctx, "any", in, isBig); !got.Truthy() {
			t.Error("any should be true")
		}
		if got := call(t, ctx, "all", in, isBig); got.Truthy() {
			t.Error("all should be false")
		}
		if got := call(t, ctx, "none", in, isBig); got.Truthy() {
			t.Error("none should be false")
		}
	})

	t.Run("maxby", func(t *testing.T) {
		negate := &value.Function{Params: []string{"x"}, Body: mustFieldNode(t, "0 - x")}
		got := call(t, ctx, "maxby", in, negate)
		if value.Compare(got, value.Number(5)) != 0 {
			t.Errorf("maxby = %v, want 5", got)
		}
	})

	t.Run("extract", func(t *testing.T) {
		obj := value.Object{"a": value.Number(1), "b": value.Number(2), "c": value.Number(3)}
		got := call(t, ctx, "extract", obj, value.String("a"), value.String("c"))
		want := value.Object{"a": value.Number(1), "c": value.Number(3)}
		if value.Compare(got, want) != 0 {
			t.Errorf("extract = %v, want %v", got, want)
		}
	})
}
