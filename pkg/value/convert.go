package value

import (
	"fmt"
	"time"
)

// FromAny converts a plain Go value (as produced by YAML or JSON
// decoding) into a Value. Unrecognised Go types are a hard error:
// ingestion paths must not silently coerce data they do not understand.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue, nil
	case Value:
		return t, nil
	case bool:
		return Boolean(t), nil
	case int:
		return Number(t), nil
	case int32:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case uint:
		return Number(t), nil
	case uint64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case float64:
		return Number(t), nil
	case string:
		return String(t), nil
	case time.Time:
		return NewDate(t), nil
	case []any:
		out := make(Array, 0, len(t))
		for _, el := range t {
			v, err := FromAny(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(t))
		for k, el := range t {
			v, err := FromAny(el)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case map[any]any:
		out := make(Object, len(t))
		for k, el := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			v, err := FromAny(el)
			if err != nil {
				return nil, err
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unrecognized value of type %T", raw)
	}
}
