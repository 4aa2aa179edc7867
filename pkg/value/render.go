package value

import (
	"strconv"
	"strings"
)

// RenderOptions controls string rendering of values.
type RenderOptions struct {
	// DateFormat is the layout for dates with no time of day.
	DateFormat string
	// DateTimeFormat is the layout for dates carrying a time of day.
	DateTimeFormat string
	// NullText is the rendering of null. Defaults to "-".
	NullText string
}

// DefaultRenderOptions are the formats used when none are supplied.
var DefaultRenderOptions = RenderOptions{
	DateFormat:     "2006-01-02",
	DateTimeFormat: "2006-01-02 15:04:05",
	NullText:       "-",
}

// ToString renders a value as Markdown-friendly text with default
// options.
func ToString(v Value) string { return ToStringWith(v, DefaultRenderOptions) }

// ToStringWith renders a value using the given options. Top-level
// arrays render as comma-joined items; nested arrays and objects keep
// their brackets so structure stays readable.
func ToStringWith(v Value, opts RenderOptions) string {
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultRenderOptions.DateFormat
	}
	if opts.DateTimeFormat == "" {
		opts.DateTimeFormat = DefaultRenderOptions.DateTimeFormat
	}
	if opts.NullText == "" {
		opts.NullText = DefaultRenderOptions.NullText
	}
	var sb strings.Builder
	render(&sb, v, opts, 0)
	return sb.String()
}

func render(sb *strings.Builder, v Value, opts RenderOptions, depth int) {
	if v == nil {
		v = NullValue
	}
	switch t := v.(type) {
	case Null:
		sb.WriteString(opts.NullText)
	case Boolean:
		sb.WriteString(strconv.FormatBool(bool(t)))
	case Number:
		sb.WriteString(formatNumber(float64(t)))
	case String:
		sb.WriteString(string(t))
	case Date:
		if t.HasTime() {
			sb.WriteString(t.Format(opts.DateTimeFormat))
		} else {
			sb.WriteString(t.Format(opts.DateFormat))
		}
	case Duration:
		sb.WriteString(t.Human())
	case Link:
		sb.WriteString(t.Markdown())
	case Array:
		if depth > 0 {
			sb.WriteByte('[')
		}
		for i, el := range t {
			if i > 0 {
				sb.WriteString(", ")
			}
			render(sb, el, opts, depth+1)
		}
		if depth > 0 {
			sb.WriteByte(']')
		}
	case Object:
		sb.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			render(sb, t[k], opts, depth+1)
		}
		sb.WriteByte('}')
	case *Task:
		sb.WriteString(t.Text)
	case *Function:
		sb.WriteString("(")
		sb.WriteString(strings.Join(t.Params, ", "))
		sb.WriteString(") => ...")
	default:
		sb.WriteString("<unknown>")
	}
}

// formatNumber renders a float without a trailing ".0" for integral
// values.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
