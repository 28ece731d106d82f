package cache

import (
	"strings"
	"testing"

	"github.com/wippyai/wasm-bench/errors"
)

func TestKeyOf(t *testing.T) {
	a := KeyOf([]byte("artifact"))
	if a != KeyOf([]byte("artifact")) {
		t.Error("equal bytes produced different keys")
	}
	if a == KeyOf([]byte("artifact2")) {
		t.Error("different bytes produced equal keys")
	}
	if _, err := ParseKey(a.String()); err != nil {
		t.Errorf("derived key does not parse: %v", err)
	}
	// SHA-256 of the empty string, base58 encoded.
	if got := KeyOf(nil); got != "GKot5hBsd81kMupNCXHaqbhv3huEbxAFMLnpcX2hniwn" {
		t.Errorf("KeyOf(nil) = %s", got)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid", KeyOf([]byte("x")).String(), true},
		{"empty", "", false},
		{"invalid alphabet", "0OIl" + strings.Repeat("1", 40), false},
		{"too short", "3yQ", false},
		{"too long", KeyOf([]byte("x")).String() + "zz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKey(tt.input)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var e *errors.Error
				if !errors.As(err, &e) || e.Kind != errors.KindInvalidInput {
					t.Fatalf("expected invalid input error, got %v", err)
				}
			}
		})
	}
}
