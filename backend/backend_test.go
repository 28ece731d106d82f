package backend

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{in: "wazero-compiler", want: WazeroCompiler},
		{in: "  Wasmer-LLVM ", want: WasmerLLVM},
		{in: "wasmtime-cranelift", want: WasmtimeCranelift},
		{in: "lucet", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAll_EngineAndTier(t *testing.T) {
	all := All()
	if len(all) != 6 {
		t.Fatalf("All() returned %d backends, want 6", len(all))
	}
	for _, b := range all {
		if !b.Valid() {
			t.Errorf("%s not valid", b)
		}
		if b.Engine() == "" || b.Tier() == "" {
			t.Errorf("%s missing engine or tier", b)
		}
	}

	if WasmerLLVM.Tier() != TierStaticAOT {
		t.Errorf("wasmer-llvm tier = %s, want %s", WasmerLLVM.Tier(), TierStaticAOT)
	}
	if WazeroInterpreter.Engine() != EngineWazero {
		t.Errorf("wazero-interpreter engine = %s", WazeroInterpreter.Engine())
	}

	// mutating the returned slice must not affect later calls
	all[0] = "mutated"
	if All()[0] != WazeroInterpreter {
		t.Error("All() exposes internal state")
	}
}

func TestMustValid_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown backend")
		}
	}()
	Backend("bogus").MustValid()
}

func TestEngine_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown backend")
		}
	}()
	_ = Backend("bogus").Engine()
}
