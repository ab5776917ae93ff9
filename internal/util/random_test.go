package util

import (
	"strings"
	"testing"
)

func TestGenerateUserCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := GenerateUserCode()
		if len(code) != UserCodeLength {
			t.Fatalf("expected length %d, got %d (%q)", UserCodeLength, len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune(userCodeChars, r) {
				t.Fatalf("unexpected character %q in code %q", r, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("expected distinct codes across generations")
	}
}

func TestGenerateUpperAlphaNumeric_Empty(t *testing.T) {
	if got := GenerateUpperAlphaNumeric(0); got != "" {
		t.Errorf("expected empty string for length 0, got %q", got)
	}
	if got := GenerateUpperAlphaNumeric(-3); got != "" {
		t.Errorf("expected empty string for negative length, got %q", got)
	}
}
