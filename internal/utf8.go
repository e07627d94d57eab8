package internal

import (
	"strings"
	"unicode/utf8"
)

// Replacement is the rune substituted for every invalid or incomplete
// UTF-8 byte sequence.
const Replacement = '�'

// UTF8 coerces s into valid UTF-8 text.
//
// Valid input is returned unchanged (fast path, zero allocations).
// Invalid byte sequences are replaced with U+FFFD, and null bytes are
// removed entirely to prevent log truncation attacks. The result is
// idempotent: UTF8(UTF8(s)) == UTF8(s).
func UTF8(s string) string {
	// Fast path: check validity and null bytes in a single scan.
	// Avoids allocation for the overwhelmingly common clean case.
	if utf8.ValidString(s) && !strings.ContainsRune(s, 0x00) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size <= 1:
			// Invalid or truncated sequence: one replacement per bad byte.
			sb.WriteRune(Replacement)
			i++
		case r == 0x00:
			// Null bytes are dropped for security.
			i += size
		default:
			sb.WriteString(s[i : i+size])
			i += size
		}
	}

	return sb.String()
}

// UTF8Bytes coerces a byte slice into valid UTF-8 text.
// The returned string never aliases p.
func UTF8Bytes(p []byte) string {
	return UTF8(string(p))
}

// NeedsQuoting reports whether a string must be quoted in key=value
// output. Empty strings, whitespace, quotes, backslashes, and '=' all
// require quoting.
func NeedsQuoting(s string) bool {
	if len(s) == 0 {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c == '"' || c == '\\' || c == '=' {
			return true
		}
	}
	return false
}
