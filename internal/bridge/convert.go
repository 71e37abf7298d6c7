// internal/bridge/convert.go
package bridge

import (
	"fmt"
	"math"
)

// integer is satisfied by json.Number and by the number type of json-iterator,
// which is what handles look like after crossing the wire.
type integer interface {
	Int64() (int64, error)
}

// AsHandle converts a value produced by a host (in process or decoded from the wire)
// into a Handle.
func AsHandle(v any) (Handle, error) {
	switch n := v.(type) {
	case Handle:
		return n, nil
	case int:
		return Handle(n), nil
	case int32:
		return Handle(n), nil
	case int64:
		return Handle(n), nil
	case uint32:
		return Handle(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("handle %v is not an integer", n)
		}
		return Handle(n), nil
	case integer:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("handle %v: %w", v, err)
		}
		return Handle(i), nil
	default:
		return 0, fmt.Errorf("value of type %T is not a handle", v)
	}
}

// AsHandles converts a host sequence into handles, preserving order. A nil result is
// an empty sequence.
func AsHandles(v any) ([]Handle, error) {
	switch s := v.(type) {
	case nil:
		return []Handle{}, nil
	case []Handle:
		out := make([]Handle, len(s))
		copy(out, s)
		return out, nil
	case []any:
		out := make([]Handle, len(s))
		for i, item := range s {
			h, err := AsHandle(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = h
		}
		return out, nil
	case []int64:
		out := make([]Handle, len(s))
		for i, item := range s {
			out[i] = Handle(item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a handle sequence", v)
	}
}

// AsOptionalString converts a "string or null" host result. ok is false for null.
func AsOptionalString(v any) (s string, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case *string:
		if t == nil {
			return "", false, nil
		}
		return *t, true, nil
	default:
		return "", false, fmt.Errorf("value of type %T is not a string", v)
	}
}
