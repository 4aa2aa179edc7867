package value

import (
	"testing"
	"time"
)

func date(t *testing.T, text string) Date {
	t.Helper()
	d, ok := ParseDate(text)
	if !ok {
		t.Fatalf("ParseDate(%q) failed", text)
	}
	return d
}

func TestCompareTotalOrder(t *testing.T) {
	values := []Value{
		NullValue,
		Boolean(false),
		Boolean(true),
		Number(-1),
		Number(0),
		Number(3.5),
		String(""),
		String("abc"),
		Duration{Days: 1},
		Duration{Hours: 30},
		FileLink("a/b.md"),
		HeaderLink("a/b.md", "X"),
		Array{Number(1), Number(2)},
		Array{Number(1), Number(3)},
		Object{"x": Number(1)},
		Object{"x": Number(2)},
	}

	for _, a := range values {
		if got := Compare(a, a); got != 0 {
			t.Errorf("Compare(%v, %v) = %d, want 0", a, a, got)
		}
		for _, b := range values {
			ab, ba := Compare(a, b), Compare(b, a)
			if ab != -ba {
				t.Errorf("Compare(%v, %v) = %d but Compare(%v, %v) = %d", a, b, ab, b, a, ba)
			}
			for _, c := range values {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 && Compare(a, c) > 0 {
					t.Errorf("transitivity violated for %v <= %v <= %v", a, b, c)
				}
			}
		}
	}
}

func TestCompareRules(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"null sorts before anything", NullValue, Number(0), -1},
		{"null equals null", NullValue, NullValue, 0},
		{"cross-kind by kind name: number before string", Number(0), String(""), -1},
		{"false before true", Boolean(false), Boolean(true), -1},
		{"numeric order", Number(2), Number(10), -1},
		{"string order", String("abc"), String("abd"), -1},
		{"array element-wise", Array{Number(1), Number(2)}, Array{Number(1), Number(3)}, -1},
		{"shorter array first on prefix tie", Array{Number(1)}, Array{Number(1), Number(2)}, -1},
		{"duration by total seconds", Duration{Hours: 23}, Duration{Days: 1}, -1},
		{"object by sorted keys", Object{"a": Number(1)}, Object{"b": Number(1)}, -1},
		{"link display ignored", FileLink("a.md").WithDisplay("x"), FileLink("a.md").WithDisplay("y"), 0},
		{"link subsection breaks tie", FileLink("a.md"), HeaderLink("a.md", "H"), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompareDates(t *testing.T) {
	early := date(t, "2024-01-01")
	late := date(t, "2024-06-01")
	if Compare(early, late) >= 0 {
		t.Errorf("expected %v < %v", early, late)
	}
	if Compare(late, early) <= 0 {
		t.Errorf("expected %v > %v", late, early)
	}
}

func TestKeyCanonical(t *testing.T) {
	t.Run("structurally equal objects share a key", func(t *testing.T) {
		a := Object{"x": Number(1), "y": String("s")}
		b := Object{"y": String("s"), "x": Number(1)}
		if Key(a) != Key(b) {
			t.Errorf("Key(%v) = %q, Key(%v) = %q", a, Key(a), b, Key(b))
		}
	})

	t.Run("kind distinguishes equal renderings", func(t *testing.T) {
		if Key(Number(1)) == Key(String("1")) {
			t.Error("number 1 and string \"1\" must not share a key")
		}
	})

	t.Run("link display ignored", func(t *testing.T) {
		a := FileLink("a.md").WithDisplay("one")
		b := FileLink("a.md").WithDisplay("two")
		if Key(a) != Key(b) {
			t.Error("link keys must ignore display text")
		}
	})
}

func TestLinkEquality(t *testing.T) {
	file := FileLink("a/b.md")
	header := HeaderLink("a/b.md", "X")

	if file.Equal(header, nil) {
		t.Error("file link must not equal header link to the same path")
	}
	if !file.Equal(header.ToFile(), nil) {
		t.Error("header link converted via ToFile must equal the file link")
	}
	if !file.Equal(file.WithDisplay("other"), nil) {
		t.Error("display text must not affect equality")
	}
}

func TestDeepCopy(t *testing.T) {
	original := Object{"list": Array{Number(1), Number(2)}}
	clone := DeepCopy(original).(Object)
	clone["list"].(Array)[0] = Number(99)

	if Equal(original["list"], clone["list"]) {
		t.Error("DeepCopy must clone nested arrays")
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", NullValue, false},
		{"zero", Number(0), false},
		{"nonzero", Number(-2), true},
		{"empty string", String(""), false},
		{"string", String("x"), true},
		{"empty array", Array{}, false},
		{"array", Array{NullValue}, true},
		{"empty object", Object{}, false},
		{"zero date", Date{}, false},
		{"date", NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), true},
		{"zero duration", Duration{}, false},
		{"duration", Duration{Minutes: 5}, true},
		{"link", FileLink("a.md"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}
