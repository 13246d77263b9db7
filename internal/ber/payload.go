package ber

import (
	"strconv"
	"time"
	"unicode/utf8"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	time.RFC3339Nano,
}

// ToInt interprets b as an unsigned big-endian integer.
func ToInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

// ToInt64 interprets b as an unsigned big-endian 64-bit integer.
func ToInt64(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ToUint32 interprets b as a big-endian two's complement INTEGER that must
// be non-negative and fit in 32 bits. Redundant leading zero bytes are
// accepted.
func ToUint32(b []byte) (uint32, bool) {
	if len(b) > 0 && b[0]&0x80 != 0 {
		return 0, false
	}
	for len(b) > 4 && b[0] == 0 {
		b = b[1:]
	}
	if len(b) > 4 {
		return 0, false
	}
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v, true
}

// ToString decodes b as UTF-8. Invalid input yields false.
func ToString(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// ToDate decodes the ASCII date representation used in receipts. Apple
// writes RFC 3339 timestamps; plain digit strings are read as seconds since
// the Unix epoch.
func ToDate(b []byte) (time.Time, bool) {
	s, ok := ToString(b)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if isDigits(s) {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// ToBool reports whether the first byte of b is non-zero.
func ToBool(b []byte) bool {
	return len(b) > 0 && b[0] != 0
}

// ToData returns a copy of b that does not alias the receipt buffer.
func ToData(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
