package value

import (
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing a date literal. Layouts
// cover YYYY-MM through full date-time with millisecond precision and
// an optional UTC offset.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
	"2006-01",
}

// ParseDate parses a textual date literal of the form
// YYYY-MM[-DD[THH[:MM[:SS[.mmm]]]]] with an optional zone suffix.
func ParseDate(text string) (Date, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return NewDate(t), true
		}
	}
	return Date{}, false
}

// IsDateShorthand reports whether name is a named date shorthand
// (today, sow, eom, ...). Shorthands resolve against wall-clock "now"
// at evaluation time, never at parse time.
func IsDateShorthand(name string) bool {
	_, ok := ResolveDateShorthand(name, time.Now())
	return ok
}

// ResolveDateShorthand resolves a named date shorthand against the
// given "now". Week boundaries are Monday-based.
func ResolveDateShorthand(name string, now time.Time) (Date, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(name) {
	case "now":
		return NewDate(now), true
	case "today":
		return NewDate(midnight), true
	case "tomorrow":
		return NewDate(midnight.AddDate(0, 0, 1)), true
	case "yesterday":
		return NewDate(midnight.AddDate(0, 0, -1)), true
	case "sow", "startofweek":
		weekday := int(midnight.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return NewDate(midnight.AddDate(0, 0, -(weekday - 1))), true
	case "eow", "endofweek":
		weekday := int(midnight.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return NewDate(midnight.AddDate(0, 0, 7-weekday)), true
	case "som", "startofmonth":
		return NewDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())), true
	case "eom", "endofmonth":
		firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return NewDate(firstOfNext.AddDate(0, 0, -1)), true
	case "soy", "startofyear":
		return NewDate(time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())), true
	case "eoy", "endofyear":
		return NewDate(time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location())), true
	default:
		return Date{}, false
	}
}

// Component returns the named component of a date (year, month, week,
// weekday, day, hour, minute, second, millisecond, weekyear). Unknown
// component names return (0, false); the evaluator maps that to null
// rather than an error.
func (d Date) Component(name string) (float64, bool) {
	switch strings.ToLower(name) {
	case "year":
		return float64(d.Year()), true
	case "month":
		return float64(int(d.Month())), true
	case "week":
		_, week := d.ISOWeek()
		return float64(week), true
	case "weekyear":
		year, _ := d.ISOWeek()
		return float64(year), true
	case "weekday":
		wd := int(d.Weekday())
		if wd == 0 {
			wd = 7
		}
		return float64(wd), true
	case "day":
		return float64(d.Day()), true
	case "hour":
		return float64(d.Hour()), true
	case "minute":
		return float64(d.Minute()), true
	case "second":
		return float64(d.Second()), true
	case "millisecond":
		return float64(d.Nanosecond() / 1e6), true
	default:
		return 0, false
	}
}
