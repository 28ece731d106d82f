package runtime

import (
	"context"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/cache"
	"github.com/wippyai/wasm-bench/engine"
	"github.com/wippyai/wasm-bench/errors"
)

// Config configures a Runtime.
type Config struct {
	// Fs overrides the cache filesystem. Native code caching is disabled
	// when set, since engines write machine code to the OS filesystem.
	Fs afero.Fs

	// Registerer receives the cache counters. Nil skips registration.
	Registerer prometheus.Registerer

	// CacheDir is the cache root. Required.
	CacheDir string

	// Entry declares the called export in WIT syntax. Empty means DefaultEntry.
	Entry string

	// MemoryLimitPages caps linear memory per instance in 64 KiB pages.
	// 0 means engine.DefaultMemoryLimitPages.
	MemoryLimitPages uint32

	// NativeCache persists wazero machine code next to stored artifacts so
	// AOT execution skips native compilation.
	NativeCache bool

	// SourceIndex lets AOTCompile reuse a stored artifact for module bytes it
	// has compiled before instead of compiling again.
	SourceIndex bool
}

// Runtime owns the compiler and cache shared by every Runner.
type Runtime struct {
	compiler *engine.Compiler
	cache    *cache.Cache
	cfg      Config
}

// New creates a runtime. No engine starts until a backend is used.
func New(_ context.Context, cfg Config) (*Runtime, error) {
	if cfg.CacheDir == "" {
		return nil, errors.InvalidInput(errors.PhaseConfig, "cache directory is required")
	}
	name, err := ParseEntry(cfg.Entry)
	if err != nil {
		return nil, err
	}

	engCfg := engine.Config{
		Entry:            name,
		MemoryLimitPages: cfg.MemoryLimitPages,
	}
	if cfg.NativeCache && cfg.Fs == nil {
		engCfg.NativeCacheDir = filepath.Join(cfg.CacheDir, backend.WazeroCompiler.String(), cache.NativeDir)
	}
	compiler := engine.NewCompiler(engCfg)

	var opts []cache.Option
	if cfg.Fs != nil {
		opts = append(opts, cache.WithFs(cfg.Fs))
	}
	if cfg.Registerer != nil {
		opts = append(opts, cache.WithRegisterer(cfg.Registerer))
	}
	c, err := cache.New(cfg.CacheDir, compiler, opts...)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		compiler: compiler,
		cache:    c,
		cfg:      cfg,
	}, nil
}

// Close releases all engines. All artifacts and instances must be closed
// before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.compiler.Close(ctx)
}

// Compiler returns the compiler shared by every runner.
func (r *Runtime) Compiler() *engine.Compiler {
	return r.compiler
}

// Cache returns the artifact cache shared by every runner.
func (r *Runtime) Cache() *cache.Cache {
	return r.cache
}

// Entry returns the export name every runner calls.
func (r *Runtime) Entry() string {
	return r.compiler.Config().Entry
}

// Available lists the backends usable in this binary.
func (r *Runtime) Available() []backend.Backend {
	var out []backend.Backend
	for _, b := range backend.All() {
		if engine.Available(b) {
			out = append(out, b)
		}
	}
	return out
}

// Runner returns the runner for backend b. It panics if b is not a known
// backend.
func (r *Runtime) Runner(b backend.Backend) *Runner {
	return &Runner{
		runtime: r,
		backend: b.MustValid(),
	}
}
