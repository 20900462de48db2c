package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeviceTitle(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"plain", "Mozilla/5.0 (X11; Linux x86_64)", "Mozilla/5.0 (X11; Linux x86_64)"},
		{"trimmed", "  curl/8.5.0  ", "curl/8.5.0"},
		{"empty", "", "unknown device"},
		{"blank", "   ", "unknown device"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
			r.Header.Set("User-Agent", tt.userAgent)
			if got := deviceTitle(r); got != tt.want {
				t.Fatalf("deviceTitle(%q) = %q, want %q", tt.userAgent, got, tt.want)
			}
		})
	}
}

func TestDeviceTitleTruncatesOnRuneBoundary(t *testing.T) {
	// 200 three-byte runes, 600 bytes total. Byte 500 falls mid-rune, so
	// the cut must back up to 498.
	r := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	r.Header.Set("User-Agent", strings.Repeat("界", 200))

	got := deviceTitle(r)
	if len(got) > 500 {
		t.Fatalf("expected at most 500 bytes, got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated title is not valid UTF-8: %q", got)
	}
	if len(got) != 498 {
		t.Fatalf("expected cut at 498 bytes, got %d", len(got))
	}
}
