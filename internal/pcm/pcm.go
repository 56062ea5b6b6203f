// Package pcm converts hardware-native sample buffers into canonical signed 16-bit PCM.
package pcm

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Format names a native hardware sample encoding.
type Format string

const (
	FormatInt16   Format = "s16"
	FormatUint16  Format = "u16"
	FormatFloat32 Format = "f32"
)

// ErrUnsupportedFormat marks a native buffer or format name with no canonical conversion.
var ErrUnsupportedFormat = errors.New("unsupported sample format")

// ParseFormat maps a config value onto a Format.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatInt16, "i16", "int16":
		return FormatInt16, nil
	case FormatUint16, "uint16":
		return FormatUint16, nil
	case FormatFloat32, "float32":
		return FormatFloat32, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// FromUint16 shifts an unsigned sample down by the 32768 midpoint.
func FromUint16(sample uint16) int16 {
	shifted := int32(sample) - 32768
	if shifted > math.MaxInt16 {
		return math.MaxInt16
	}
	if shifted < math.MinInt16 {
		return math.MinInt16
	}
	return int16(shifted)
}

// FromFloat32 clamps to [-1, 1], scales by 32767 and truncates toward zero.
func FromFloat32(sample float32) int16 {
	switch {
	case sample != sample: // NaN
		return 0
	case sample > 1:
		sample = 1
	case sample < -1:
		sample = -1
	}
	return int16(sample * math.MaxInt16)
}

// Canonicalize converts one native buffer into a freshly allocated []int16.
// The caller owns the result; the native buffer may be reused by the host.
func Canonicalize(native any) ([]int16, error) {
	switch buf := native.(type) {
	case []int16:
		out := make([]int16, len(buf))
		copy(out, buf)
		return out, nil
	case []uint16:
		out := make([]int16, len(buf))
		for i, s := range buf {
			out[i] = FromUint16(s)
		}
		return out, nil
	case []float32:
		out := make([]int16, len(buf))
		for i, s := range buf {
			out[i] = FromFloat32(s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFormat, native)
	}
}

// Bytes serializes canonical samples as little-endian bytes.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
