package eval

import (
	"strconv"
	"strings"
	"time"

	"github.com/noteql/noteql/pkg/value"
)

// registerConstructors installs date(), dur() and striptime().
func registerConstructors(r *FunctionRegistry) {
	r.Register(NewFunction("date").
		Vectorize(1, 0).
		Add1(value.KindDate, func(_ *Context, a value.Value) (value.Value, error) {
			return a, nil
		}).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.NullValue, nil
		}).
		Add1(value.KindString, func(ctx *Context, a value.Value) (value.Value, error) {
			text := strings.TrimSpace(string(a.(value.String)))
			if d, ok := value.ParseDate(text); ok {
				return d, nil
			}
			if d, ok := value.ResolveDateShorthand(text, ctx.Now()); ok {
				return d, nil
			}
			return value.NullValue, nil
		}).
		Add1(value.KindLink, func(ctx *Context, a value.Value) (value.Value, error) {
			return dateFromLink(ctx, a.(value.Link)), nil
		}))

	r.Register(NewFunction("dur").
		Vectorize(1, 0).
		Add1(value.KindDuration, func(_ *Context, a value.Value) (value.Value, error) {
			return a, nil
		}).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.NullValue, nil
		}).
		Add1(value.KindString, func(_ *Context, a value.Value) (value.Value, error) {
			if d, ok := parseDurationText(string(a.(value.String))); ok {
				return d, nil
			}
			return value.NullValue, nil
		}))

	r.Register(NewFunction("localtime").
		Vectorize(1, 0).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.NullValue, nil
		}).
		Add1(value.KindDate, func(_ *Context, a value.Value) (value.Value, error) {
			return value.NewDate(a.(value.Date).Time.Local()), nil
		}))

	r.Register(NewFunction("striptime").
		Vectorize(1, 0).
		Add1(value.KindNull, func(_ *Context, _ value.Value) (value.Value, error) {
			return value.NullValue, nil
		}).
		Add1(value.KindDate, func(_ *Context, a value.Value) (value.Value, error) {
			d := a.(value.Date)
			return value.NewDate(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())), nil
		}))
}

// dateFromLink extracts a date from a link: its display text, then its
// path's final segment, then the resolved document's "day" field.
func dateFromLink(ctx *Context, link value.Link) value.Value {
	if link.Display != "" {
		if d, ok := value.ParseDate(link.Display); ok {
			return d
		}
	}
	base := link.Path
	if slash := strings.LastIndexByte(base, '/'); slash >= 0 {
		base = base[slash+1:]
	}
	base = strings.TrimSuffix(base, ".md")
	if d, ok := value.ParseDate(base); ok {
		return d
	}
	if fields, ok := ctx.ResolveLink(link.Path); ok {
		if day := fields.Get("day"); day.Kind() == value.KindDate {
			return day
		}
	}
	return value.NullValue
}

// parseDurationText parses "<number> <unit>" runs out of free text:
// "2 days", "1 hr, 30 mins", "8h30m".
func parseDurationText(text string) (value.Duration, bool) {
	var d value.Duration
	matched := false

	i := 0
	n := len(text)
	for i < n {
		for i < n && !isDurDigit(text[i]) && text[i] != '-' {
			i++
		}
		if i >= n {
			break
		}

		start := i
		if text[i] == '-' {
			i++
		}
		for i < n && (isDurDigit(text[i]) || text[i] == '.') {
			i++
		}
		num, err := strconv.ParseFloat(text[start:i], 64)
		if err != nil {
			return value.Duration{}, false
		}

		for i < n && text[i] == ' ' {
			i++
		}
		unitStart := i
		for i < n && isDurLetter(text[i]) {
			i++
		}
		if unitStart == i {
			return value.Duration{}, false
		}
		if !d.AddUnit(text[unitStart:i], num) {
			return value.Duration{}, false
		}
		matched = true
	}

	return d, matched
}

func isDurDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isDurLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
