// Key normalization.
//
// A key is any hashable, equality-comparable user value. Go's `any` as a
// map key satisfies that, but only if the same logical value always arrives as the same
// dynamic type — otherwise int(5) and int64(5) hash to different map
// slots despite being "the same key" to a caller. normalizeKey collapses
// every integer width to int64 (uint64 is rejected, as it may not fit)
// and every float width to float64 so that
// insertion and lookup agree regardless of which literal type a caller
// happened to use, and so that values decoded back from the footer's
// JSON-based key encoding (which only ever produces string/int64/
// float64/bool) compare equal to the values originally inserted.
package fdd

import "fmt"

func normalizeKey(k any) (any, error) {
	switch v := k.(type) {
	case string:
		return v, nil
	case bool:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrColumnMismatch, k)
	}
}

// keyKind tags which of the four persisted shapes a key takes in the
// footer's JSON encoding.
type keyKind string

const (
	keyKindString  keyKind = "s"
	keyKindInt64   keyKind = "i"
	keyKindFloat64 keyKind = "f"
	keyKindBool    keyKind = "b"
)

// encodedKey is the footer's JSON representation of one key.
type encodedKey struct {
	Kind keyKind `json:"k"`
	S    string  `json:"s,omitempty"`
	I    int64   `json:"i,omitempty"`
	F    float64 `json:"f,omitempty"`
	B    bool    `json:"b,omitempty"`
}

func encodeKey(k any) (encodedKey, error) {
	norm, err := normalizeKey(k)
	if err != nil {
		return encodedKey{}, err
	}
	switch v := norm.(type) {
	case string:
		return encodedKey{Kind: keyKindString, S: v}, nil
	case int64:
		return encodedKey{Kind: keyKindInt64, I: v}, nil
	case float64:
		return encodedKey{Kind: keyKindFloat64, F: v}, nil
	case bool:
		return encodedKey{Kind: keyKindBool, B: v}, nil
	default:
		return encodedKey{}, fmt.Errorf("%w: unsupported key type %T", ErrColumnMismatch, k)
	}
}

func decodeKey(e encodedKey) (any, error) {
	switch e.Kind {
	case keyKindString:
		return e.S, nil
	case keyKindInt64:
		return e.I, nil
	case keyKindFloat64:
		return e.F, nil
	case keyKindBool:
		return e.B, nil
	default:
		return nil, fmt.Errorf("%w: unknown key kind %q", ErrInvalidFile, e.Kind)
	}
}
