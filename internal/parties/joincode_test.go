package parties

import (
	"strings"
	"testing"
)

func TestGenerateJoinCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := generateJoinCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != joinCodeLength {
			t.Fatalf("unexpected length for %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(joinCodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Fatalf("expected mostly unique codes, got %d distinct", len(seen))
	}
}
