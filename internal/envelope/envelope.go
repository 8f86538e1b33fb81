// Package envelope implements the stored payload format.
//
//	Payload := Marker(0x02) | compressed   ; compression applied
//	         | serialized                   ; raw codec output, no marker
//	         | [-]digits                    ; native integer, never enveloped
//
// The marker is a single byte. Codecs must never emit it as the first byte of
// an unmarked payload; callers re-check with Ambiguous before storing raw bytes.
package envelope

import (
	"errors"
	"strconv"
)

// Marker tags a payload whose remainder is compressed.
const Marker byte = 0x02

var ErrNotInteger = errors.New("brcache: payload is not a native integer")

// Wrap returns Marker || compressed in a fresh buffer.
func Wrap(compressed []byte) []byte {
	out := make([]byte, 1+len(compressed))
	out[0] = Marker
	copy(out[1:], compressed)
	return out
}

// Unwrap reports whether b carries the marker and returns the bytes after it.
// The returned slice aliases b.
func Unwrap(b []byte) (compressed []byte, ok bool) {
	if len(b) == 0 || b[0] != Marker {
		return nil, false
	}
	return b[1:], true
}

// IsCompressed reports whether b starts with Marker.
func IsCompressed(b []byte) bool { return len(b) > 0 && b[0] == Marker }

// IsInteger reports whether b is native integer text: an optional '-' followed
// by at least one ASCII digit and nothing else.
func IsInteger(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	i := 0
	if b[0] == '-' {
		i = 1
	}
	if i == len(b) {
		return false
	}
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return false
		}
	}
	return true
}

// Ambiguous reports whether raw codec output could be misread on the way back:
// it starts with Marker, or (when integers are detected dynamically) it looks
// like native integer text.
func Ambiguous(raw []byte, dynamicInts bool) bool {
	if IsCompressed(raw) {
		return true
	}
	return dynamicInts && IsInteger(raw)
}

func FormatInt(n int64) []byte   { return strconv.AppendInt(nil, n, 10) }
func FormatUint(n uint64) []byte { return strconv.AppendUint(nil, n, 10) }

// ParseInt parses native integer text. Values above MaxInt64 are returned via
// ParseUint instead; callers decide which one fits their destination.
func ParseInt(b []byte, bits int) (int64, error) {
	if !IsInteger(b) {
		return 0, ErrNotInteger
	}
	return strconv.ParseInt(string(b), 10, bits)
}

func ParseUint(b []byte, bits int) (uint64, error) {
	if !IsInteger(b) || b[0] == '-' {
		return 0, ErrNotInteger
	}
	return strconv.ParseUint(string(b), 10, bits)
}
