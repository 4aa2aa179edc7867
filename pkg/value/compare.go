package value

import (
	"sort"
	"strings"
)

// Compare defines the single total order over all values, used by
// sorting, grouping, min/max and the comparison operators.
//
// The order is:
//   - null sorts before everything; two nulls are equal.
//   - values of different kinds order by lexicographic comparison of
//     their kind names. This is an explicit, documented tie-break for
//     heterogeneous data, not a claim of natural ordering.
//   - within a kind, the kind's own rule applies (numeric, chronological,
//     element-wise, ...). Functions compare equal to each other.
//
// The result is -1, 0 or 1, and the relation is a strict total order:
// Compare(a, b) == -Compare(b, a) and it is transitive.
func Compare(a, b Value) int { return CompareWith(a, b, nil) }

// CompareWith is Compare with an optional link path normaliser, so two
// links written with different short forms of the same target compare
// equal.
func CompareWith(a, b Value, normalize func(string) string) int {
	if a == nil {
		a = NullValue
	}
	if b == nil {
		b = NullValue
	}

	ak, bk := a.Kind(), b.Kind()
	if ak == KindNull || bk == KindNull {
		switch {
		case ak == bk:
			return 0
		case ak == KindNull:
			return -1
		default:
			return 1
		}
	}
	if ak != bk {
		return strings.Compare(ak.String(), bk.String())
	}

	switch av := a.(type) {
	case Boolean:
		bv := b.(Boolean)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case Number:
		bv := b.(Number)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case String:
		return strings.Compare(string(av), string(b.(String)))
	case Date:
		bv := b.(Date)
		switch {
		case av.Before(bv.Time):
			return -1
		case av.After(bv.Time):
			return 1
		default:
			return 0
		}
	case Duration:
		as, bs := av.TotalSeconds(), b.(Duration).TotalSeconds()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	case Link:
		return av.compare(b.(Link), normalize)
	case Array:
		return compareArrays(av, b.(Array), normalize)
	case Object:
		return compareObjects(av, b.(Object), normalize)
	case *Task:
		return compareTasks(av, b.(*Task))
	case *Function:
		return 0
	default:
		return 0
	}
}

// compareArrays orders element-wise, then by length.
func compareArrays(a, b Array, normalize func(string) string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := CompareWith(a[i], b[i], normalize); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// compareObjects orders by the sorted key lists first, then by the
// values at each shared key in sorted order.
func compareObjects(a, b Object, normalize func(string) string) int {
	ak, bk := sortedKeys(a), sortedKeys(b)

	n := min(len(ak), len(bk))
	for i := 0; i < n; i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ak) < len(bk):
		return -1
	case len(ak) > len(bk):
		return 1
	}

	for _, k := range ak {
		if c := CompareWith(a[k], b[k], normalize); c != 0 {
			return c
		}
	}
	return 0
}

func compareTasks(a, b *Task) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	switch {
	case a.Line < b.Line:
		return -1
	case a.Line > b.Line:
		return 1
	}
	return strings.Compare(a.Text, b.Text)
}

func sortedKeys(o Object) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports structural equality under the total order.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Key derives a canonical string from a value's structural content.
// Two structurally equal values always produce the same key, so the
// group operation buckets equal-but-distinct values together. Keys are
// kind-tagged to keep Number(1) and String("1") apart.
func Key(v Value) string {
	var sb strings.Builder
	writeKey(&sb, v)
	return sb.String()
}

func writeKey(sb *strings.Builder, v Value) {
	if v == nil {
		v = NullValue
	}
	sb.WriteString(v.Kind().String())
	sb.WriteByte(':')
	switch t := v.(type) {
	case Null:
	case Array:
		sb.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeKey(sb, el)
		}
		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			writeKey(sb, t[k])
		}
		sb.WriteByte('}')
	case Link:
		// Target only; display text is not part of link identity.
		sb.WriteString(t.Path)
		sb.WriteByte('#')
		sb.WriteString(t.Sub.String())
		sb.WriteByte('#')
		sb.WriteString(t.SubID)
	default:
		sb.WriteString(ToString(v))
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
