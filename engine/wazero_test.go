package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/internal/wasmtest"
)

func newTestWazero(t *testing.T, b backend.Backend, dir string) *wazeroEngine {
	t.Helper()
	ctx := context.Background()
	e, err := newWazeroEngine(ctx, b, Config{MemoryLimitPages: DefaultMemoryLimitPages, NativeCacheDir: dir}.withDefaults())
	if err != nil {
		t.Fatalf("newWazeroEngine: %v", err)
	}
	t.Cleanup(func() {
		if err := e.close(ctx); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return e
}

func TestWazero_InterpreterIgnoresNativeCache(t *testing.T) {
	e := newTestWazero(t, backend.WazeroInterpreter, t.TempDir())
	rt, err := e.nativeRuntime(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rt != e.runtime {
		t.Error("interpreter should load on its plain runtime")
	}
}

func TestWazero_NativeRuntimeCreatedOnce(t *testing.T) {
	if !wazeroCompilerSupported() {
		t.Skip("wazero compiler unsupported on this platform")
	}
	e := newTestWazero(t, backend.WazeroCompiler, t.TempDir())
	ctx := context.Background()

	first, err := e.nativeRuntime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.nativeRuntime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("cached runtime recreated")
	}
	if first == e.runtime {
		t.Error("compile runtime must stay uncached")
	}
}

func TestWazero_SerializePrimesNativeCache(t *testing.T) {
	if !wazeroCompilerSupported() {
		t.Skip("wazero compiler unsupported on this platform")
	}
	dir := filepath.Join(t.TempDir(), "native")
	e := newTestWazero(t, backend.WazeroCompiler, dir)
	ctx := context.Background()

	m, err := e.compile(ctx, wasmtest.Fib())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer m.close(ctx)

	if _, err := os.Stat(dir); err == nil {
		t.Fatal("compile alone must not touch the native cache")
	}

	payload, err := m.serialize(ctx)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if string(payload) != string(wasmtest.Fib()) {
		t.Error("payload should be the module bytes")
	}

	var files int
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files++
		}
		return nil
	})
	if files == 0 {
		t.Error("native cache is empty after serialize")
	}

	loaded, err := e.deserialize(ctx, payload)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	defer loaded.close(ctx)

	inst, err := loaded.instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.close(ctx)

	fn, ok := inst.lookup(wasmtest.Entry)
	if !ok {
		t.Fatal("entry not found")
	}
	if got, err := fn.call(ctx, 20); err != nil || got != wasmtest.FibNative(20) {
		t.Errorf("call = %d, %v", got, err)
	}
}

func TestWazero_ImportsAndExports(t *testing.T) {
	e := newTestWazero(t, backend.WazeroInterpreter, "")
	ctx := context.Background()

	m, err := e.compile(ctx, wasmtest.WithImport())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer m.close(ctx)

	if got := m.imports(); len(got) != 1 || got[0] != "env#f" {
		t.Errorf("imports = %v", got)
	}
	if got := m.exports(); len(got) != 1 || got[0] != wasmtest.Entry {
		t.Errorf("exports = %v", got)
	}
}

func TestWazero_TypeNames(t *testing.T) {
	got := wazeroTypeNames([]api.ValueType{api.ValueTypeI32, api.ValueTypeF64})
	if len(got) != 2 || got[0] != "i32" || got[1] != "f64" {
		t.Errorf("names = %v", got)
	}
}
