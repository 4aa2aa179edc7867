package eval

import (
	"errors"
	"testing"
	"time"

	"github.com/noteql/noteql/pkg/parser"
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// fakeResolver resolves links against a fixed map of documents.
type fakeResolver struct {
	docs map[string]value.Object
}

func (f *fakeResolver) Resolve(path string) (value.Object, bool) {
	doc, ok := f.docs[f.Normalize(path)]
	return doc, ok
}

func (f *fakeResolver) Normalize(path string) string { return path }

func (f *fakeResolver) Exists(path string) bool {
	_, ok := f.docs[f.Normalize(path)]
	return ok
}

func evalText(t *testing.T, ctx *Context, text string) value.Value {
	t.Helper()
	node, err := parser.ParseField(text)
	if err != nil {
		t.Fatalf("ParseField(%q) failed: %v", text, err)
	}
	v, err := ctx.Evaluate(node, nil)
	if err != nil {
		t.Fatalf("Evaluate(%q) failed: %v", text, err)
	}
	return v
}

func evalErr(t *testing.T, ctx *Context, text string) *types.Error {
	t.Helper()
	node, err := parser.ParseField(text)
	if err != nil {
		t.Fatalf("ParseField(%q) failed: %v", text, err)
	}
	_, err = ctx.Evaluate(node, nil)
	if err == nil {
		t.Fatalf("Evaluate(%q) succeeded, want error", text)
	}
	var eerr *types.Error
	if !errors.As(err, &eerr) {
		t.Fatalf("error is %T, want *types.Error", err)
	}
	return eerr
}

func TestEvaluateExpressions(t *testing.T) {
	ctx := NewContext(WithGlobals(map[string]value.Value{
		"rating": value.Number(4),
		"name":   value.String("dune"),
		"tags":   value.Array{value.String("a"), value.String("b")},
		"meta":   value.Object{"genre": value.String("scifi")},
	}))

	tests := []struct {
		name string
		text string
		want value.Value
	}{
		{"arithmetic", "1 + 2 * 3", value.Number(7)},
		{"modulo", "7 % 3", value.Number(1)},
		{"variable", "rating", value.Number(4)},
		{"undefined variable is null", "missing", value.NullValue},
		{"comparison", "rating > 3", value.Boolean(true)},
		{"equality", `name = "dune"`, value.Boolean(true)},
		{"negation", "!true", value.Boolean(false)},
		{"boolean and", "true and false", value.Boolean(false)},
		{"boolean or over truthiness", `"" or 5`, value.Boolean(true)},
		{"string concat", `"a" + "b"`, value.String("ab")},
		{"string plus number renders", `"n=" + 3`, value.String("n=3")},
		{"string repeat", `"ab" * 2`, value.String("abab")},
		{"array concat", "[1] + [2]", value.Array{value.Number(1), value.Number(2)}},
		{"object merge right wins", "{a: 1, b: 1} + {b: 2}", value.Object{"a": value.Number(1), "b": value.Number(2)}},
		{"object field", "meta.genre", value.String("scifi")},
		{"array index", "tags[1]", value.String("b")},
		{"array index out of range", "tags[9]", value.NullValue},
		{"string index", `name[0]`, value.String("d")},
		{"null plus null", "null + null", value.NullValue},
		{"null arithmetic propagates", "null + 1", value.NullValue},
		{"null sorts before numbers", "null < 5", value.Boolean(true)},
		{"null not greater", "null > 5", value.Boolean(false)},
		{"sort call from an expression", "sort([3, 1, 2])",
			value.Array{value.Number(1), value.Number(2), value.Number(3)}},
		{"lambda call", "((x) => x * 2)(21)", value.Number(42)},
		{"lambda missing arg is null", "((x, y) => y)(1)", value.NullValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalText(t, ctx, tt.text)
			if value.Compare(got, tt.want) != 0 {
				t.Errorf("%s = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEvaluateDates(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	ctx := NewContext(WithNow(now))

	t.Run("date minus date is a duration", func(t *testing.T) {
		got := evalText(t, ctx, "2024-05-03 - 2024-05-01")
		d, ok := got.(value.Duration)
		if !ok || d.Days != 2 {
			t.Errorf("got %v, want 2 days", got)
		}
	})

	t.Run("date plus duration", func(t *testing.T) {
		got := evalText(t, ctx, "2024-05-01 + 7 days")
		want, _ := value.ParseDate("2024-05-08")
		if value.Compare(got, want) != 0 {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("shorthand resolves against the context clock", func(t *testing.T) {
		got := evalText(t, ctx, "date(today)")
		want := value.NewDate(time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
		if value.Compare(got, want) != 0 {
			t.Errorf("date(today) = %v, want %v", got, want)
		}
	})

	t.Run("date component access", func(t *testing.T) {
		got := evalText(t, ctx, "2024-05-01.year")
		if value.Compare(got, value.Number(2024)) != 0 {
			t.Errorf("year = %v, want 2024", got)
		}
	})

	t.Run("unknown component is null", func(t *testing.T) {
		got := evalText(t, ctx, "2024-05-01.era")
		if got.Kind() != value.KindNull {
			t.Errorf("unknown component = %v, want null", got)
		}
	})

	t.Run("duration component access", func(t *testing.T) {
		got := evalText(t, ctx, "(1 hr, 30 mins).mins")
		if value.Compare(got, value.Number(30)) != 0 {
			t.Errorf("mins = %v, want 30", got)
		}
	})
}

func TestEvaluateLinkIndex(t *testing.T) {
	resolver := &fakeResolver{docs: map[string]value.Object{
		"games/dune.md": {"rating": value.Number(5)},
	}}
	ctx := NewContext(WithResolver(resolver))

	got := evalText(t, ctx, "[[games/dune.md]].rating")
	if value.Compare(got, value.Number(5)) != 0 {
		t.Errorf("link index = %v, want 5", got)
	}

	missing := evalText(t, ctx, "[[nowhere]].rating")
	if missing.Kind() != value.KindNull {
		t.Errorf("unresolvable link index = %v, want null", missing)
	}
}

func TestEvaluateArrayBroadcast(t *testing.T) {
	ctx := NewContext(WithGlobals(map[string]value.Value{
		"rows": value.Array{
			value.Object{"a": value.Number(1)},
			value.Object{"a": value.Number(2)},
		},
	}))

	got := evalText(t, ctx, "rows.a")
	want := value.Array{value.Number(1), value.Number(2)}
	if value.Compare(got, want) != 0 {
		t.Errorf("rows.a = %v, want %v", got, want)
	}
}

func TestEvaluateErrors(t *testing.T) {
	ctx := NewContext()

	t.Run("no operator implementation", func(t *testing.T) {
		err := evalErr(t, ctx, "true - 2024-05-01")
		if err.Code != types.ErrNoOperator {
			t.Errorf("code = %s, want %s", err.Code, types.ErrNoOperator)
		}
	})

	t.Run("bad index kind", func(t *testing.T) {
		err := evalErr(t, ctx, "[1][true]")
		if err.Code != types.ErrBadIndex {
			t.Errorf("code = %s, want %s", err.Code, types.ErrBadIndex)
		}
	})

	t.Run("unknown function", func(t *testing.T) {
		err := evalErr(t, ctx, "frobnicate(1)")
		if err.Code != types.ErrUnknownFunction {
			t.Errorf("code = %s, want %s", err.Code, types.ErrUnknownFunction)
		}
	})

	t.Run("calling a non-function", func(t *testing.T) {
		err := evalErr(t, ctx, "(1 + 2)(3)")
		if err.Code != types.ErrNotCallable {
			t.Errorf("code = %s, want %s", err.Code, types.ErrNotCallable)
		}
	})
}

func TestOperatorRegistryFallback(t *testing.T) {
	r := NewOperatorRegistry()
	mark := func(tag string) BinaryFunc {
		return func(_ *Context, _, _ value.Value) (value.Value, error) {
			return value.String(tag), nil
		}
	}
	r.Register(value.KindNumber, "+", value.KindNumber, mark("exact"))
	r.Register(value.KindNumber, "+", AnyKind, mark("left-wild"))
	r.Register(AnyKind, "+", value.KindString, mark("right-wild"))
	r.Register(AnyKind, "+", AnyKind, mark("both-wild"))

	ctx := NewContext(WithOperators(r))

	tests := []struct {
		name        string
		left, right value.Value
		want        string
	}{
		{"exact wins over wildcards", value.Number(1), value.Number(2), "exact"},
		{"left wildcard next", value.Number(1), value.Boolean(true), "left-wild"},
		{"right wildcard next", value.Boolean(true), value.String("s"), "right-wild"},
		{"double wildcard last", value.Boolean(true), value.Boolean(false), "both-wild"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Apply(ctx, "+", tt.left, tt.right)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got != value.String(tt.want) {
				t.Errorf("Apply = %v, want %s", got, tt.want)
			}
		})
	}

	t.Run("no entry fails", func(t *testing.T) {
		if _, err := r.Apply(ctx, "?", value.Number(1), value.Number(2)); err == nil {
			t.Error("unregistered operator must fail")
		}
	})
}

func TestRegisterComm(t *testing.T) {
	r := NewOperatorRegistry()
	r.RegisterComm(value.KindDuration, "*", value.KindNumber,
		func(_ *Context, l, rv value.Value) (value.Value, error) {
			return l.(value.Duration).Scale(float64(rv.(value.Number))), nil
		})

	ctx := NewContext(WithOperators(r))

	forward, err := r.Apply(ctx, "*", value.Duration{Days: 2}, value.Number(3))
	if err != nil {
		t.Fatalf("duration * number failed: %v", err)
	}
	backward, err := r.Apply(ctx, "*", value.Number(3), value.Duration{Days: 2})
	if err != nil {
		t.Fatalf("number * duration failed: %v", err)
	}
	if value.Compare(forward, backward) != 0 {
		t.Errorf("commutative registration disagrees: %v vs %v", forward, backward)
	}
	if forward.(value.Duration).Days != 6 {
		t.Errorf("duration * number = %v, want 6 days", forward)
	}
}
