package engine

import (
	"bytes"
	"context"
	"fmt"
	goruntime "runtime"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bench/backend"
)

const wazeroModulePath = "github.com/tetratelabs/wazero"

// wazeroEngine serves both wazero backends. Compiles go through a runtime
// without a compilation cache so JIT timings never reuse machine code from
// disk. Artifacts loaded from the cache compile on a second runtime backed
// by the file cache when NativeCacheDir is set.
type wazeroEngine struct {
	runtime     wazero.Runtime
	cached      wazero.Runtime
	cache       wazero.CompilationCache
	backend     backend.Backend
	cacheDir    string
	ver         string
	memoryPages uint32
	mu          sync.Mutex
}

func newWazeroEngine(ctx context.Context, b backend.Backend, cfg Config) (*wazeroEngine, error) {
	e := &wazeroEngine{
		backend:     b,
		memoryPages: cfg.MemoryLimitPages,
		ver:         "wazero " + moduleVersion(wazeroModulePath),
	}
	// The interpreter has no machine code to persist.
	if b == backend.WazeroCompiler {
		e.cacheDir = cfg.NativeCacheDir
	}
	e.runtime = wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())
	return e, nil
}

func (e *wazeroEngine) runtimeConfig() wazero.RuntimeConfig {
	var rc wazero.RuntimeConfig
	if e.backend == backend.WazeroInterpreter {
		rc = wazero.NewRuntimeConfigInterpreter()
	} else {
		rc = wazero.NewRuntimeConfigCompiler()
	}
	return rc.WithMemoryLimitPages(e.memoryPages)
}

// nativeRuntime returns the runtime backed by the file compilation cache,
// creating it on first use. Without a cache directory it returns the plain
// runtime.
func (e *wazeroEngine) nativeRuntime(ctx context.Context) (wazero.Runtime, error) {
	if e.cacheDir == "" {
		return e.runtime, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cached != nil {
		return e.cached, nil
	}
	cache, err := wazero.NewCompilationCacheWithDir(e.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("open native cache %s: %w", e.cacheDir, err)
	}
	e.cache = cache
	e.cached = wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig().WithCompilationCache(cache))
	Logger().Debug("native cache enabled", zap.String("backend", e.backend.String()), zap.String("dir", e.cacheDir))
	return e.cached, nil
}

func (e *wazeroEngine) compile(ctx context.Context, wasm []byte) (nativeModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, err
	}
	return &wazeroModule{
		engine:   e,
		runtime:  e.runtime,
		compiled: compiled,
		wasm:     bytes.Clone(wasm),
	}, nil
}

func (e *wazeroEngine) deserialize(ctx context.Context, payload []byte) (nativeModule, error) {
	rt, err := e.nativeRuntime(ctx)
	if err != nil {
		return nil, err
	}
	compiled, err := rt.CompileModule(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &wazeroModule{
		engine:   e,
		runtime:  rt,
		compiled: compiled,
		wasm:     bytes.Clone(payload),
	}, nil
}

func (e *wazeroEngine) version() string {
	return e.ver
}

func (e *wazeroEngine) close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	if e.cached != nil {
		if err := e.cached.Close(ctx); err != nil {
			firstErr = err
		}
		e.cached = nil
	}
	if e.cache != nil {
		if err := e.cache.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		e.cache = nil
	}
	if err := e.runtime.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// wazeroModule keeps the original bytes because wazero has no public
// serializer: the bytes are the payload, and the file cache holds the
// machine code.
type wazeroModule struct {
	engine   *wazeroEngine
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	wasm     []byte
}

func (m *wazeroModule) imports() []string {
	var out []string
	for _, def := range m.compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		out = append(out, mod+"#"+name)
	}
	for _, def := range m.compiled.ImportedMemories() {
		mod, name, _ := def.Import()
		out = append(out, mod+"#"+name)
	}
	return out
}

func (m *wazeroModule) exports() []string {
	defs := m.compiled.ExportedFunctions()
	out := make([]string, 0, len(defs))
	for name := range defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *wazeroModule) serialize(ctx context.Context) ([]byte, error) {
	rt, err := m.engine.nativeRuntime(ctx)
	if err != nil {
		return nil, err
	}
	if rt != m.runtime {
		// Compiling on the cached runtime writes machine code to the file cache.
		primed, err := rt.CompileModule(ctx, m.wasm)
		if err != nil {
			return nil, fmt.Errorf("prime native cache: %w", err)
		}
		if err := primed.Close(ctx); err != nil {
			return nil, err
		}
	}
	return bytes.Clone(m.wasm), nil
}

func (m *wazeroModule) instantiate(ctx context.Context) (nativeInstance, error) {
	// Anonymous so one compiled module can back many live instances. The
	// start section still runs; no exported function is called implicitly.
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	mod, err := m.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, err
	}
	return &wazeroInstance{module: mod}, nil
}

func (m *wazeroModule) close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

type wazeroInstance struct {
	module api.Module
}

func (i *wazeroInstance) lookup(name string) (nativeFunc, bool) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}
	return wazeroFunc{fn: fn}, true
}

func (i *wazeroInstance) close(ctx context.Context) error {
	return i.module.Close(ctx)
}

type wazeroFunc struct {
	fn api.Function
}

func (f wazeroFunc) signature() signature {
	def := f.fn.Definition()
	return signature{
		params:  wazeroTypeNames(def.ParamTypes()),
		results: wazeroTypeNames(def.ResultTypes()),
	}
}

func (f wazeroFunc) call(ctx context.Context, arg uint32) (uint32, error) {
	results, err := f.fn.Call(ctx, api.EncodeU32(arg))
	if err != nil {
		return 0, err
	}
	return api.DecodeU32(results[0]), nil
}

func wazeroTypeNames(types []api.ValueType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = api.ValueTypeName(t)
	}
	return out
}

// wazeroCompilerSupported mirrors the platforms where wazero generates
// machine code. Elsewhere NewRuntimeConfigCompiler silently interprets.
func wazeroCompilerSupported() bool {
	switch goruntime.GOARCH {
	case "amd64", "arm64":
	default:
		return false
	}
	switch goruntime.GOOS {
	case "linux", "darwin", "freebsd", "netbsd", "dragonfly", "windows":
		return true
	}
	return false
}
