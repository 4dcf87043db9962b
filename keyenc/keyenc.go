// Package keyenc implements an order-preserving encoding of value tuples.
//
// Encode maps a tuple of JSON-like values to a string such that comparing two
// encoded strings byte-wise gives the same result as comparing the tuples
// element by element. This is what makes a sorted index over encoded keys
// usable for range scans.
//
// # Format
//
// Each element is a type tag followed by an optional payload:
//
//   - MinKey: 0x00
//   - nil: 0x05
//   - false, true: 0x10, 0x11
//   - numbers: 0x20, then float64 bits with the sign flipped (big-endian, 8 bytes)
//   - strings: 0x30, then bytes with 0x00 escaped as 0x00 0xFF, then 0x00 0x01
//   - MaxKey: 0xFF
//
// Types order as MinKey < nil < false < true < numbers < strings < MaxKey.
// All integer and float kinds are encoded as float64, so 1, int64(1) and 1.0
// produce the same key. Integers outside ±2^53 cannot be represented exactly
// and are rejected with ErrInexactInteger. NaN cannot be encoded.
package keyenc

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

const (
	tagMin    byte = 0x00
	tagNull   byte = 0x05
	tagFalse  byte = 0x10
	tagTrue   byte = 0x11
	tagNumber byte = 0x20
	tagString byte = 0x30
	tagMax    byte = 0xFF

	escByte  byte = 0x00
	escEsc   byte = 0xFF
	escTerm  byte = 0x01
	numBytes      = 8
)

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrNaN             = errors.New("NaN is not orderable")
	ErrInexactInteger  = errors.New("integer is not exactly representable as float64")
	ErrCorrupted       = errors.New("corrupted key")
)

type sentinel int8

func (s sentinel) String() string {
	if s < 0 {
		return "MinKey"
	}
	return "MaxKey"
}

// MinKey sorts before any other value, MaxKey after any other value.
// They are used to pad open-ended range bounds.
var (
	MinKey any = sentinel(-1)
	MaxKey any = sentinel(1)
)

// Encoding is the default tuple encoding. The zero value is ready to use.
type Encoding struct{}

func (Encoding) Encode(tuple []any) (string, error) {
	return Encode(tuple...)
}

func (Encoding) LowerSentinel() any { return MinKey }
func (Encoding) UpperSentinel() any { return MaxKey }

var keyBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 256)
	},
}

// Encode returns the encoded form of the given tuple.
func Encode(values ...any) (string, error) {
	buf := keyBytesPool.Get().([]byte)
	defer func() { keyBytesPool.Put(buf[:0]) }()

	var err error
	for i, v := range values {
		buf, err = Append(buf, v)
		if err != nil {
			return "", fmt.Errorf("tuple element %d: %w", i, err)
		}
	}
	return string(buf), nil
}

// MustEncode is like Encode, but panics on unsupported values.
func MustEncode(values ...any) string {
	s, err := Encode(values...)
	if err != nil {
		panic(err)
	}
	return s
}

// Append appends the encoding of a single value to buf.
func Append(buf []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return append(buf, tagNull), nil
	case sentinel:
		if v < 0 {
			return append(buf, tagMin), nil
		}
		return append(buf, tagMax), nil
	case bool:
		if v {
			return append(buf, tagTrue), nil
		}
		return append(buf, tagFalse), nil
	case string:
		return appendString(buf, v), nil
	case float64:
		return appendNumber(buf, v)
	case float32:
		return appendNumber(buf, float64(v))
	case int:
		return appendInt(buf, int64(v))
	case int8:
		return appendNumber(buf, float64(v))
	case int16:
		return appendNumber(buf, float64(v))
	case int32:
		return appendNumber(buf, float64(v))
	case int64:
		return appendInt(buf, int64(v))
	case uint:
		if uint64(v) > maxExactInt {
			return buf, fmt.Errorf("%w: %d", ErrInexactInteger, v)
		}
		return appendNumber(buf, float64(v))
	case uint8:
		return appendNumber(buf, float64(v))
	case uint16:
		return appendNumber(buf, float64(v))
	case uint32:
		return appendNumber(buf, float64(v))
	case uint64:
		if uint64(v) > maxExactInt {
			return buf, fmt.Errorf("%w: %d", ErrInexactInteger, v)
		}
		return appendNumber(buf, float64(v))
	default:
		return buf, fmt.Errorf("%w %T", ErrUnsupportedType, v)
	}
}

const maxExactInt = 1 << 53

func appendInt(buf []byte, v int64) ([]byte, error) {
	if v > maxExactInt || v < -maxExactInt {
		return buf, fmt.Errorf("%w: %d", ErrInexactInteger, v)
	}
	return appendNumber(buf, float64(v))
}

func appendNumber(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) {
		return buf, ErrNaN
	}
	if f == 0 {
		f = 0 // fold -0 into +0
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) == 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	buf = append(buf, tagNumber)
	return appendUint64(buf, bits), nil
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, tagString)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == escByte {
			buf = append(buf, escByte, escEsc)
		} else {
			buf = append(buf, c)
		}
	}
	return append(buf, escByte, escTerm)
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56),
		byte(v>>48),
		byte(v>>40),
		byte(v>>32),
		byte(v>>24),
		byte(v>>16),
		byte(v>>8),
		byte(v))
}

// Decode parses an encoded tuple back into values. Numbers decode as float64,
// sentinels as MinKey / MaxKey.
func Decode(s string) ([]any, error) {
	var result []any
	for off := 0; off < len(s); {
		tag := s[off]
		off++
		switch tag {
		case tagMin:
			result = append(result, MinKey)
		case tagMax:
			result = append(result, MaxKey)
		case tagNull:
			result = append(result, nil)
		case tagFalse:
			result = append(result, false)
		case tagTrue:
			result = append(result, true)
		case tagNumber:
			if len(s)-off < numBytes {
				return nil, fmt.Errorf("%w: truncated number at %d", ErrCorrupted, off)
			}
			var bits uint64
			for _, b := range []byte(s[off : off+numBytes]) {
				bits = bits<<8 | uint64(b)
			}
			off += numBytes
			if bits&(1<<63) != 0 {
				bits ^= 1 << 63
			} else {
				bits = ^bits
			}
			result = append(result, math.Float64frombits(bits))
		case tagString:
			str, n, err := decodeString(s[off:])
			if err != nil {
				return nil, fmt.Errorf("%w at %d", err, off)
			}
			off += n
			result = append(result, str)
		default:
			return nil, fmt.Errorf("%w: unknown tag 0x%02x at %d", ErrCorrupted, tag, off-1)
		}
	}
	return result, nil
}

func decodeString(s string) (string, int, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != escByte {
			out = append(out, c)
			continue
		}
		if i+1 >= len(s) {
			break
		}
		switch s[i+1] {
		case escEsc:
			out = append(out, escByte)
			i++
		case escTerm:
			return string(out), i + 2, nil
		default:
			return "", 0, fmt.Errorf("%w: bad string escape 0x%02x", ErrCorrupted, s[i+1])
		}
	}
	return "", 0, fmt.Errorf("%w: unterminated string", ErrCorrupted)
}

// Compare orders two values the way their encodings would order. Values that
// cannot be encoded sort after every encodable value and compare equal to
// each other.
func Compare(a, b any) int {
	ka, erra := Encode(a)
	kb, errb := Encode(b)
	switch {
	case erra != nil && errb != nil:
		return 0
	case erra != nil:
		return 1
	case errb != nil:
		return -1
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
