package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
	"github.com/wippyai/wasm-bench/runtime"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wasmbench.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MemoryLimitPages != 128 {
		t.Errorf("MemoryLimitPages = %d, want 128", cfg.MemoryLimitPages)
	}
	if cfg.Entry != runtime.DefaultEntry {
		t.Errorf("Entry = %q", cfg.Entry)
	}
	bs, err := cfg.ParseBackends()
	if err != nil || len(bs) != len(backend.All()) {
		t.Errorf("ParseBackends() = %v, %v", bs, err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheDir != Default().CacheDir {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
cache_dir: /var/cache/wasmbench
backends: [wazero-interpreter, wasmer-llvm]
entry: "fib: func(n: u32) -> u32"
memory_limit_pages: 256
native_cache: false
source_index: true
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CacheDir != "/var/cache/wasmbench" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.MemoryLimitPages != 256 || cfg.NativeCache || !cfg.SourceIndex {
		t.Errorf("unexpected values %+v", cfg)
	}
	bs, err := cfg.ParseBackends()
	if err != nil {
		t.Fatalf("ParseBackends: %v", err)
	}
	if len(bs) != 2 || bs[0] != backend.WazeroInterpreter || bs[1] != backend.WasmerLLVM {
		t.Errorf("backends = %v", bs)
	}
	if lvl, _ := cfg.Level(); lvl != zapcore.DebugLevel {
		t.Errorf("level = %v", lvl)
	}

	rc := cfg.Runtime()
	if rc.CacheDir != cfg.CacheDir || rc.Entry != cfg.Entry || rc.MemoryLimitPages != 256 || !rc.SourceIndex {
		t.Errorf("runtime config = %+v", rc)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "cache_dir: /from/file\nsource_index: false\n")
	t.Setenv("WASMBENCH_CACHE_DIR", "/from/env")
	t.Setenv("WASMBENCH_SOURCE_INDEX", "true")
	t.Setenv("WASMBENCH_BACKENDS", "wazero-compiler,wasmtime-cranelift")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheDir != "/from/env" {
		t.Errorf("CacheDir = %q, want env value", cfg.CacheDir)
	}
	if !cfg.SourceIndex {
		t.Error("SourceIndex not overridden by env")
	}
	if len(cfg.Backends) != 2 || cfg.Backends[1] != "wasmtime-cranelift" {
		t.Errorf("Backends = %v", cfg.Backends)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		kind errors.Kind
	}{
		{"bad yaml", "cache_dir: [unclosed", nil, errors.KindInvalidInput},
		{"unknown backend", "backends: [v8]", nil, errors.KindInvalidInput},
		{"bad entry", "entry: main", nil, errors.KindInvalidInput},
		{"bad level", "log_level: loud", nil, errors.KindInvalidInput},
		{"too much memory", "memory_limit_pages: 70000", nil, errors.KindInvalidInput},
		{"empty cache dir", "cache_dir: ''", nil, errors.KindInvalidInput},
		{"bad env", "", map[string]string{"WASMBENCH_MEMORY_LIMIT_PAGES": "lots"}, errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			var e *errors.Error
			if !errors.As(err, &e) || e.Kind != tt.kind || e.Phase != errors.PhaseConfig {
				t.Errorf("expected %s config error, got %v", tt.kind, err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		var e *errors.Error
		if !errors.As(err, &e) || e.Kind != errors.KindIO {
			t.Errorf("expected io error, got %v", err)
		}
	})
}
