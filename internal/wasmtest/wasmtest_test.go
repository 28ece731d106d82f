package wasmtest

import (
	"bytes"
	"testing"

	"github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/wasm"
)

func TestFibNative(t *testing.T) {
	want := []uint32{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89}
	for n, w := range want {
		if got := FibNative(uint32(n)); got != w {
			t.Errorf("FibNative(%d) = %d, want %d", n, got, w)
		}
	}
}

func TestFixturesDecode(t *testing.T) {
	fixtures := map[string][]byte{
		"fib":         Fib(),
		"add_one":     AddOne(),
		"unreachable": Unreachable(),
		"recursion":   InfiniteRecursion(),
		"wrong_sig":   WrongSignature(),
		"import":      WithImport(),
		"start_trap":  StartTrap(),
	}
	for name, bin := range fixtures {
		t.Run(name, func(t *testing.T) {
			mod, err := binary.DecodeModule(bin, wasm.CoreFeaturesV2)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(mod.ExportSection) != 1 || mod.ExportSection[0].Name != Entry {
				t.Errorf("expected single %s export, got %v", Entry, mod.ExportSection)
			}
		})
	}
}

func TestFixturesDeterministic(t *testing.T) {
	if !bytes.Equal(Fib(), Fib()) {
		t.Error("Fib() encoding is not deterministic")
	}
	if bytes.Equal(Fib(), FibExportedAs("other")) {
		t.Error("export name should change the encoding")
	}
}
