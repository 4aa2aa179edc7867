package value

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a span of time decomposed into calendar and clock units.
// Units are kept separate rather than collapsed to seconds so that
// shifting a date by a duration can be calendar aware (adding one month
// moves the month field rather than adding a fixed 30 days).
type Duration struct {
	Years   float64
	Months  float64
	Weeks   float64
	Days    float64
	Hours   float64
	Minutes float64
	Seconds float64
	Millis  float64
}

func (d Duration) Kind() Kind { return KindDuration }

// Truthy reports whether the duration spans any time at all.
func (d Duration) Truthy() bool { return d.TotalSeconds() != 0 }

// Fixed second conversions used for ordering and truthiness. Calendar
// units use their conventional approximations (month = 30 days,
// year = 365 days); exact month/year arithmetic only matters when
// shifting dates, which goes through AddToDate instead.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 7 * secondsPerDay
	secondsPerMonth  = 30 * secondsPerDay
	secondsPerYear   = 365 * secondsPerDay
)

// TotalSeconds collapses the duration to seconds using the fixed
// conversions above.
func (d Duration) TotalSeconds() float64 {
	return d.Years*secondsPerYear +
		d.Months*secondsPerMonth +
		d.Weeks*secondsPerWeek +
		d.Days*secondsPerDay +
		d.Hours*secondsPerHour +
		d.Minutes*secondsPerMinute +
		d.Seconds +
		d.Millis/1000
}

// Add returns the component-wise sum of two durations.
func (d Duration) Add(o Duration) Duration {
	return Duration{
		Years:   d.Years + o.Years,
		Months:  d.Months + o.Months,
		Weeks:   d.Weeks + o.Weeks,
		Days:    d.Days + o.Days,
		Hours:   d.Hours + o.Hours,
		Minutes: d.Minutes + o.Minutes,
		Seconds: d.Seconds + o.Seconds,
		Millis:  d.Millis + o.Millis,
	}
}

// Sub returns the component-wise difference of two durations.
func (d Duration) Sub(o Duration) Duration {
	return d.Add(o.Scale(-1))
}

// Scale multiplies every component by f.
func (d Duration) Scale(f float64) Duration {
	return Duration{
		Years:   d.Years * f,
		Months:  d.Months * f,
		Weeks:   d.Weeks * f,
		Days:    d.Days * f,
		Hours:   d.Hours * f,
		Minutes: d.Minutes * f,
		Seconds: d.Seconds * f,
		Millis:  d.Millis * f,
	}
}

// AddToDate shifts a date by this duration. Whole calendar components
// go through AddDate so month/year arithmetic respects month lengths;
// everything else (clock units and fractional calendar parts) is added
// as an absolute offset.
func (d Duration) AddToDate(t Date) Date {
	years, yFrac := splitWhole(d.Years)
	months, mFrac := splitWhole(d.Months)
	days, dFrac := splitWhole(d.Days + d.Weeks*7)

	shifted := t.AddDate(years, months, days)

	rest := yFrac*secondsPerYear + mFrac*secondsPerMonth + dFrac*secondsPerDay +
		d.Hours*secondsPerHour + d.Minutes*secondsPerMinute + d.Seconds + d.Millis/1000
	shifted = shifted.Add(time.Duration(rest * float64(time.Second)))

	return NewDate(shifted)
}

func splitWhole(f float64) (int, float64) {
	w := int(f)
	return w, f - float64(w)
}

// DurationBetween computes the calendar-aware difference a - b, spread
// across years, months, days and clock units. The result is negative in
// every component when a precedes b.
func DurationBetween(a, b Date) Duration {
	later, earlier := a.Time, b.Time
	sign := 1.0
	if later.Before(earlier) {
		later, earlier = earlier, later
		sign = -1
	}

	years := 0
	for !earlier.AddDate(years+1, 0, 0).After(later) {
		years++
	}
	earlier = earlier.AddDate(years, 0, 0)

	months := 0
	for !earlier.AddDate(0, months+1, 0).After(later) {
		months++
	}
	earlier = earlier.AddDate(0, months, 0)

	days := 0
	for !earlier.AddDate(0, 0, days+1).After(later) {
		days++
	}
	earlier = earlier.AddDate(0, 0, days)

	rest := later.Sub(earlier)
	hours := rest / time.Hour
	rest -= hours * time.Hour
	minutes := rest / time.Minute
	rest -= minutes * time.Minute
	seconds := rest / time.Second
	rest -= seconds * time.Second
	millis := rest / time.Millisecond

	return Duration{
		Years:   float64(years),
		Months:  float64(months),
		Days:    float64(days),
		Hours:   float64(hours),
		Minutes: float64(minutes),
		Seconds: float64(seconds),
		Millis:  float64(millis),
	}.Scale(sign)
}

// Component returns the named unit of the duration. Singular and plural
// forms are both accepted. The second return is false for unknown unit
// names.
func (d Duration) Component(name string) (float64, bool) {
	switch strings.ToLower(name) {
	case "year", "years", "yr", "yrs":
		return d.Years, true
	case "month", "months", "mo", "mos":
		return d.Months, true
	case "week", "weeks", "wk", "wks":
		return d.Weeks, true
	case "day", "days":
		return d.Days, true
	case "hour", "hours", "hr", "hrs":
		return d.Hours, true
	case "minute", "minutes", "min", "mins":
		return d.Minutes, true
	case "second", "seconds", "sec", "secs":
		return d.Seconds, true
	case "millisecond", "milliseconds", "ms":
		return d.Millis, true
	default:
		return 0, false
	}
}

// durationUnits maps parseable unit spellings to the field they feed.
// Shared with the parser's duration-literal grammar.
var durationUnits = map[string]func(*Duration, float64){
	"year": func(d *Duration, n float64) { d.Years += n }, "years": func(d *Duration, n float64) { d.Years += n },
	"yr": func(d *Duration, n float64) { d.Years += n }, "yrs": func(d *Duration, n float64) { d.Years += n },
	"month": func(d *Duration, n float64) { d.Months += n }, "months": func(d *Duration, n float64) { d.Months += n },
	"mo": func(d *Duration, n float64) { d.Months += n }, "mos": func(d *Duration, n float64) { d.Months += n },
	"week": func(d *Duration, n float64) { d.Weeks += n }, "weeks": func(d *Duration, n float64) { d.Weeks += n },
	"wk": func(d *Duration, n float64) { d.Weeks += n }, "wks": func(d *Duration, n float64) { d.Weeks += n },
	"w": func(d *Duration, n float64) { d.Weeks += n },
	"day": func(d *Duration, n float64) { d.Days += n }, "days": func(d *Duration, n float64) { d.Days += n },
	"d": func(d *Duration, n float64) { d.Days += n },
	"hour": func(d *Duration, n float64) { d.Hours += n }, "hours": func(d *Duration, n float64) { d.Hours += n },
	"hr": func(d *Duration, n float64) { d.Hours += n }, "hrs": func(d *Duration, n float64) { d.Hours += n },
	"h": func(d *Duration, n float64) { d.Hours += n },
	"minute": func(d *Duration, n float64) { d.Minutes += n }, "minutes": func(d *Duration, n float64) { d.Minutes += n },
	"min": func(d *Duration, n float64) { d.Minutes += n }, "mins": func(d *Duration, n float64) { d.Minutes += n },
	"m": func(d *Duration, n float64) { d.Minutes += n },
	"second": func(d *Duration, n float64) { d.Seconds += n }, "seconds": func(d *Duration, n float64) { d.Seconds += n },
	"sec": func(d *Duration, n float64) { d.Seconds += n }, "secs": func(d *Duration, n float64) { d.Seconds += n },
	"s": func(d *Duration, n float64) { d.Seconds += n },
}

// IsDurationUnit reports whether word is a recognised duration unit
// spelling.
func IsDurationUnit(word string) bool {
	_, ok := durationUnits[strings.ToLower(word)]
	return ok
}

// AddUnit adds n of the named unit to the duration. Returns false for
// unknown unit names.
func (d *Duration) AddUnit(unit string, n float64) bool {
	fn, ok := durationUnits[strings.ToLower(unit)]
	if !ok {
		return false
	}
	fn(d, n)
	return true
}

// Human renders the duration as a minimal human-readable string,
// skipping zero components: "1 year, 2 days". The zero duration renders
// as "0 seconds".
func (d Duration) Human() string {
	type part struct {
		n    float64
		unit string
	}
	parts := []part{
		{d.Years, "year"}, {d.Months, "month"}, {d.Weeks, "week"}, {d.Days, "day"},
		{d.Hours, "hour"}, {d.Minutes, "minute"}, {d.Seconds, "second"}, {d.Millis, "millisecond"},
	}

	var out []string
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		unit := p.unit
		if p.n != 1 && p.n != -1 {
			unit += "s"
		}
		out = append(out, fmt.Sprintf("%s %s", formatNumber(p.n), unit))
	}
	if len(out) == 0 {
		return "0 seconds"
	}
	return strings.Join(out, ", ")
}
