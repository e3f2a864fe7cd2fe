package timeutil

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := map[string]time.Duration{
		"":           0,
		"36h":        36 * time.Hour,
		"2d":         48 * time.Hour,
		"1w2d6h30m":  (7*24+2*24+6)*time.Hour + 30*time.Minute,
		"3 Days":     72 * time.Hour,
		"1week 1min": 7*24*time.Hour + time.Minute,
	}
	for in, want := range tests {
		got, err := ParseWindow(in)
		if err != nil {
			t.Fatalf("ParseWindow(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseWindow(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseWindowInvalid(t *testing.T) {
	for _, in := range []string{"noop", "5", "3y", "0d", "h2"} {
		if _, err := ParseWindow(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatWindow(t *testing.T) {
	if got := FormatWindow((7*24+2*24+6)*time.Hour + 30*time.Minute); got != "1w2d6h30m" {
		t.Fatalf("got %q", got)
	}
	if got := FormatWindow(0); got != "0s" {
		t.Fatalf("got %q", got)
	}
}
