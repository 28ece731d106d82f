package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
)

// Compiler turns module bytes into native artifacts for any backend.
// Engines are created on first use and shared by every artifact of that
// backend. Compiler is safe for concurrent use.
type Compiler struct {
	engines map[backend.Backend]nativeEngine
	cfg     Config
	mu      sync.Mutex
	closed  bool
}

// NewCompiler creates a compiler. No engine is started until a backend is used.
func NewCompiler(cfg Config) *Compiler {
	return &Compiler{
		cfg:     cfg.withDefaults(),
		engines: make(map[backend.Backend]nativeEngine),
	}
}

// Config returns the effective configuration, defaults applied.
func (c *Compiler) Config() Config {
	return c.cfg
}

// Compile compiles wasm with the backend's native compiler. The bytes are
// not validated beforehand: whatever the backend rejects is a compile error.
// Compile never writes to disk.
func (c *Compiler) Compile(ctx context.Context, b backend.Backend, wasm []byte) (*Artifact, error) {
	eng, err := c.engine(ctx, b)
	if err != nil {
		return nil, err
	}

	mod, err := eng.compile(ctx, wasm)
	if err != nil {
		Logger().Debug("compile failed", zap.String("backend", b.String()), zap.Error(err))
		return nil, errors.Compile(b.String(), err)
	}
	return newArtifact(c, b, eng, mod), nil
}

// Deserialize restores an artifact produced by Artifact.Serialize under the
// same backend. Foreign or mismatched data is reported as cache corruption.
func (c *Compiler) Deserialize(ctx context.Context, b backend.Backend, data []byte) (*Artifact, error) {
	b.MustValid()

	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, errors.CacheCorrupt(b.String(), "", "decode artifact envelope", err)
	}
	if env.Magic != envelopeMagic || env.Format != envelopeFormat {
		return nil, errors.New(errors.PhaseCache, errors.KindCacheCorrupt).
			Backend(b.String()).
			Detail("unknown artifact format %q/%d", env.Magic, env.Format).
			Build()
	}
	if env.Backend != b.String() {
		return nil, errors.New(errors.PhaseCache, errors.KindCacheCorrupt).
			Backend(b.String()).
			Detail("artifact compiled for %s", env.Backend).
			Build()
	}

	eng, err := c.engine(ctx, b)
	if err != nil {
		return nil, err
	}
	if env.EngineVersion != eng.version() || env.Platform != platform() {
		return nil, errors.New(errors.PhaseCache, errors.KindCacheCorrupt).
			Backend(b.String()).
			Detail("artifact built by %s on %s, running %s on %s",
				env.EngineVersion, env.Platform, eng.version(), platform()).
			Build()
	}

	mod, err := eng.deserialize(ctx, env.Payload)
	if err != nil {
		return nil, errors.CacheCorrupt(b.String(), "", "native deserialize", err)
	}
	return newArtifact(c, b, eng, mod), nil
}

// Close releases every engine. Artifacts must be closed first.
func (c *Compiler) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	for b, eng := range c.engines {
		if err := eng.close(ctx); err != nil {
			Logger().Warn("close engine", zap.String("backend", b.String()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.engines = nil
	return firstErr
}

func (c *Compiler) engine(ctx context.Context, b backend.Backend) (nativeEngine, error) {
	b.MustValid()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Unsupported(b.String(), "compiler closed")
	}
	if eng, ok := c.engines[b]; ok {
		return eng, nil
	}
	if !Available(b) {
		return nil, errors.Unsupported(b.String(), "backend not available in this build")
	}

	eng, err := open(ctx, b, c.cfg)
	if err != nil {
		return nil, errors.Compile(b.String(), err)
	}
	c.engines[b] = eng

	Logger().Debug("engine started",
		zap.String("backend", b.String()),
		zap.String("version", eng.version()),
		zap.Uint32("memory_limit_pages", c.cfg.MemoryLimitPages))
	return eng, nil
}
