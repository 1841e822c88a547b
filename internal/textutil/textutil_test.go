package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	short := "hello"
	if got := Truncate(short); got != short {
		t.Errorf("Truncate(%q) = %q", short, got)
	}

	long := strings.Repeat("x", MaxErrLen+100)
	if got := Truncate(long); len(got) != MaxErrLen {
		t.Errorf("len = %d, want %d", len(got), MaxErrLen)
	}
}

func TestTruncate_UTF8Boundary(t *testing.T) {
	// Multi-byte runes straddling the limit must not be split.
	long := strings.Repeat("世", MaxErrLen) // 3 bytes each
	got := Truncate(long)
	if len(got) > MaxErrLen {
		t.Errorf("len = %d, over limit", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestSanitizeStopReason(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"passthrough", "end_turn", "end_turn"},
		{"empty", "", ""},
		{"newline rejected", "end\nturn", ""},
		{"tab rejected", "end\tturn", ""},
		{"escape rejected", "end\x1bturn", ""},
		{"truncated", strings.Repeat("a", MaxStopLen+10), strings.Repeat("a", MaxStopLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeStopReason(tt.in); got != tt.want {
				t.Errorf("SanitizeStopReason(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeStopReason_UTF8Boundary(t *testing.T) {
	long := strings.Repeat("é", MaxStopLen) // 2 bytes each
	got := SanitizeStopReason(long)
	if len(got) > MaxStopLen {
		t.Errorf("len = %d, over limit", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
}
