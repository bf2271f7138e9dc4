// Byte-codec registry: turns values into bytes and back.
//
// A Codec is persisted in the footer by its Name alone: encode/decode
// functions can't survive a process boundary, so the footer stores a
// stable string identifier and a process-wide registry resolves it back
// to a live Codec on open.
//
// The built-in family is one small codec per concrete Go type, dispatched
// by a type switch, rather than a single catch-all reflective encoder.
package fdd

import (
	"fmt"
	"math"
	"sync"

	json "github.com/goccy/go-json"
)

// Codec is a named, persistable (encode, decode) pair. Name is written
// into the footer; a reader resolves it through the process-wide registry
// via LookupCodec.
type Codec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

var registry = struct {
	mu sync.RWMutex
	m  map[string]Codec
}{m: map[string]Codec{}}

func init() {
	for _, c := range []Codec{rawCodec{}, utf8Codec{}, int64Codec{}, uint64Codec{}, float64Codec{}, jsonCodec{}} {
		registry.m[c.Name()] = c
	}
}

// RegisterCodec adds a custom codec to the process-wide registry under its
// own Name. Registration is safe for concurrent use; it is the only
// process-wide mutable state fdd maintains. Registering a name that is
// already present, built-in names included, replaces the earlier codec for
// the current process only — it does not change what's already been
// persisted in any file's footer.
func RegisterCodec(c Codec) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.m[c.Name()] = c
}

// LookupCodec resolves a persisted codec name to a live Codec. A footer
// that names a codec not registered in this process is rejected with
// ErrCodecUnregistered rather than guessed at.
func LookupCodec(name string) (Codec, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	c, ok := registry.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCodecUnregistered, name)
	}
	return c, nil
}

// DefaultCodecName is used for the whole-value codec and for any declared
// column that does not specify one explicitly.
const DefaultCodecName = "json"

// rawCodec passes []byte values through unchanged.
type rawCodec struct{}

func (rawCodec) Name() string { return "raw" }
func (rawCodec) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: raw codec requires []byte, got %T", ErrCodecError, v)
	}
	return b, nil
}
func (rawCodec) Decode(b []byte) (any, error) { return b, nil }

// utf8Codec stores Go strings as their UTF-8 bytes verbatim.
type utf8Codec struct{}

func (utf8Codec) Name() string { return "utf8" }
func (utf8Codec) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: utf8 codec requires string, got %T", ErrCodecError, v)
	}
	return []byte(s), nil
}
func (utf8Codec) Decode(b []byte) (any, error) { return string(b), nil }

// int64Codec stores a signed 64-bit integer as 8 big-endian bytes.
type int64Codec struct{}

func (int64Codec) Name() string { return "int64" }
func (int64Codec) Encode(v any) ([]byte, error) {
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8)
	putUint64BE(buf, uint64(n))
	return buf, nil
}
func (int64Codec) Decode(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("%w: int64 codec requires 8 bytes, got %d", ErrCodecError, len(b))
	}
	return int64(getUint64BE(b)), nil
}

// uint64Codec stores an unsigned 64-bit integer as 8 big-endian bytes.
type uint64Codec struct{}

func (uint64Codec) Name() string { return "uint64" }
func (uint64Codec) Encode(v any) ([]byte, error) {
	n, err := toUint64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8)
	putUint64BE(buf, n)
	return buf, nil
}
func (uint64Codec) Decode(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("%w: uint64 codec requires 8 bytes, got %d", ErrCodecError, len(b))
	}
	return getUint64BE(b), nil
}

// float64Codec stores a 64-bit float as its IEEE-754 bit pattern.
type float64Codec struct{}

func (float64Codec) Name() string { return "float64" }
func (float64Codec) Encode(v any) ([]byte, error) {
	f, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8)
	putUint64BE(buf, math.Float64bits(f))
	return buf, nil
}
func (float64Codec) Decode(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("%w: float64 codec requires 8 bytes, got %d", ErrCodecError, len(b))
	}
	return math.Float64frombits(getUint64BE(b)), nil
}

// jsonCodec is the default whole-value codec: any JSON-marshalable value
// round-trips through goccy/go-json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return DefaultCodecName }
func (jsonCodec) Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecError, err)
	}
	return b, nil
}
func (jsonCodec) Decode(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecError, err)
	}
	return v, nil
}

func putUint64BE(buf []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

func getUint64BE(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: int64 codec requires an integer, got %T", ErrCodecError, v)
	}
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("%w: uint64 codec requires a non-negative integer", ErrCodecError)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("%w: uint64 codec requires a non-negative integer", ErrCodecError)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("%w: uint64 codec requires an integer, got %T", ErrCodecError, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("%w: float64 codec requires a number, got %T", ErrCodecError, v)
	}
}
