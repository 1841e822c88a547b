// Package textutil sanitizes strings copied off the agent wire before they
// enter events or errors.
package textutil

import (
	"unicode"
	"unicode/utf8"
)

// MaxErrLen caps error content to prevent unbounded propagation.
const MaxErrLen = 4096

// MaxStopLen is the maximum byte length for a sanitized stop reason.
const MaxStopLen = 64

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Truncate caps a string at MaxErrLen bytes with UTF-8-safe truncation.
func Truncate(s string) string {
	return truncateUTF8(s, MaxErrLen)
}

// SanitizeStopReason validates and truncates a raw stop reason string.
// Returns "" for strings containing control characters.
// Validate-then-truncate: control chars are rejected first, then rune-safe
// truncation ensures valid UTF-8 output.
func SanitizeStopReason(raw string) string {
	for _, r := range raw {
		if unicode.IsControl(r) {
			return ""
		}
	}
	return truncateUTF8(raw, MaxStopLen)
}
