package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/cache"
	"github.com/wippyai/wasm-bench/internal/wasmtest"
	"github.com/wippyai/wasm-bench/runtime"
)

func writeModule(t *testing.T, bin []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mod.wasm")
	if err := os.WriteFile(path, bin, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(t *testing.T, bin []byte, mode runtime.Mode) options {
	t.Helper()
	t.Setenv("WASMBENCH_CACHE_DIR", t.TempDir())
	return options{
		wasmFile: writeModule(t, bin),
		backends: string(backend.WazeroInterpreter),
		mode:     string(mode),
		arg:      10,
		repeat:   1,
	}
}

func TestInspect(t *testing.T) {
	info, err := inspect(wasmtest.WithImport())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(info.imports) != 1 || !strings.HasPrefix(info.imports[0], "env#f") {
		t.Errorf("imports = %v", info.imports)
	}
	if len(info.exports) != 1 {
		t.Fatalf("exports = %v", info.exports)
	}
	if got := info.exports[0].String(); got != wasmtest.Entry+"(i32) -> i32" {
		t.Errorf("export = %q", got)
	}
}

func TestInspect_Malformed(t *testing.T) {
	if _, err := inspect(wasmtest.Malformed()); err == nil {
		t.Error("expected decode error")
	}
}

func TestRun_List(t *testing.T) {
	o := testOptions(t, wasmtest.Fib(), runtime.ModeJIT)
	o.list = true

	var out bytes.Buffer
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Source digest: "+cache.KeyOf(wasmtest.Fib()).String()) {
		t.Errorf("listing lacks source digest:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Key:") {
		t.Errorf("listing presents the source digest as a module key:\n%s", out.String())
	}
	if !strings.Contains(out.String(), wasmtest.Entry+"(i32) -> i32") {
		t.Errorf("listing lacks entry:\n%s", out.String())
	}
}

func TestRun_Modes(t *testing.T) {
	want := strconv.FormatUint(uint64(wasmtest.FibNative(10)), 10)

	for _, mode := range []runtime.Mode{runtime.ModeJIT, runtime.ModeAOTTotal, runtime.ModeCall} {
		t.Run(string(mode), func(t *testing.T) {
			o := testOptions(t, wasmtest.Fib(), mode)
			o.repeat = 2

			var out bytes.Buffer
			if err := run(context.Background(), o, &out); err != nil {
				t.Fatalf("run: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if len(lines) != 3 {
				t.Fatalf("expected header and 2 rows, got:\n%s", out.String())
			}
			for _, l := range lines[1:] {
				if !strings.Contains(l, " "+want+" ") {
					t.Errorf("row %q lacks result %s", l, want)
				}
			}
		})
	}
}

func TestRun_CompileThenExecute(t *testing.T) {
	o := testOptions(t, wasmtest.Fib(), runtime.ModeAOTCompile)
	o.metrics = true

	var out bytes.Buffer
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatalf("aot_c: %v", err)
	}
	if !strings.Contains(out.String(), "wasmbench_cache_stores_total") {
		t.Errorf("metrics missing:\n%s", out.String())
	}

	// Rows are: backend, mode, key, result, elapsed.
	lines := strings.Split(out.String(), "\n")
	if len(lines) < 2 {
		t.Fatalf("no aot_c row:\n%s", out.String())
	}
	fields := strings.Fields(lines[1])
	if len(fields) != 5 || fields[1] != string(runtime.ModeAOTCompile) {
		t.Fatalf("unexpected aot_c row %q", lines[1])
	}
	key, err := cache.ParseKey(fields[2])
	if err != nil {
		t.Fatalf("aot_c key %q: %v", fields[2], err)
	}
	if key == cache.KeyOf(wasmtest.Fib()) {
		t.Error("module key equals the source digest")
	}

	o.mode = string(runtime.ModeAOTExecute)
	o.wasmFile = ""
	o.metrics = false
	o.key = key.String()
	out.Reset()
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatalf("aot_e: %v", err)
	}
	if !strings.Contains(out.String(), " 89 ") {
		t.Errorf("aot_e output:\n%s", out.String())
	}

	// The source digest is not a module key.
	o.key = cache.KeyOf(wasmtest.Fib()).String()
	out.Reset()
	if err := run(context.Background(), o, &out); err == nil || !strings.Contains(out.String(), "cache_miss") {
		t.Errorf("aot_e with source digest: err=%v output:\n%s", err, out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("bad mode", func(t *testing.T) {
		o := testOptions(t, wasmtest.Fib(), "fast")
		if err := run(context.Background(), o, &bytes.Buffer{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad backend", func(t *testing.T) {
		o := testOptions(t, wasmtest.Fib(), runtime.ModeJIT)
		o.backends = "v8"
		if err := run(context.Background(), o, &bytes.Buffer{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad key", func(t *testing.T) {
		o := testOptions(t, wasmtest.Fib(), runtime.ModeAOTExecute)
		o.key = "not-a-key"
		if err := run(context.Background(), o, &bytes.Buffer{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("trap reported per backend", func(t *testing.T) {
		o := testOptions(t, wasmtest.Unreachable(), runtime.ModeJIT)
		var out bytes.Buffer
		err := run(context.Background(), o, &out)
		if err == nil || !strings.Contains(out.String(), "error:") {
			t.Errorf("err=%v output:\n%s", err, out.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		o := testOptions(t, wasmtest.Fib(), runtime.ModeJIT)
		o.wasmFile = filepath.Join(t.TempDir(), "absent.wasm")
		if err := run(context.Background(), o, &bytes.Buffer{}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRun_ArgOutOfRange(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("uint cannot exceed u32 here")
	}
	o := testOptions(t, wasmtest.Fib(), runtime.ModeJIT)
	big := uint64(1) << 32
	o.arg = uint(big)
	if err := run(context.Background(), o, &bytes.Buffer{}); err == nil {
		t.Error("expected range error")
	}
}
