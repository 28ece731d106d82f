package engine

import (
	"context"
	"sync"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
)

// Artifact is a natively compiled module. It is bound to the backend that
// produced it and must be closed exactly once.
type Artifact struct {
	engine    nativeEngine
	module    nativeModule
	compiler  *Compiler
	closeErr  error
	backend   backend.Backend
	closeOnce sync.Once
}

func newArtifact(c *Compiler, b backend.Backend, eng nativeEngine, mod nativeModule) *Artifact {
	return &Artifact{
		compiler: c,
		backend:  b,
		engine:   eng,
		module:   mod,
	}
}

// Backend returns the backend that compiled the artifact.
func (a *Artifact) Backend() backend.Backend {
	return a.backend
}

// Exports lists the exported function names.
func (a *Artifact) Exports() []string {
	return a.module.exports()
}

// Imports lists every import as "module#name".
func (a *Artifact) Imports() []string {
	return a.module.imports()
}

// Serialize encodes the artifact so Compiler.Deserialize can restore it
// under the same backend, engine version and platform.
func (a *Artifact) Serialize(ctx context.Context) ([]byte, error) {
	payload, err := a.module.serialize(ctx)
	if err != nil {
		return nil, errors.IO(a.backend.String(), "serialize artifact", err)
	}

	data, err := encodeEnvelope(&envelope{
		Magic:         envelopeMagic,
		Format:        envelopeFormat,
		Backend:       a.backend.String(),
		Engine:        string(a.backend.Engine()),
		EngineVersion: a.engine.version(),
		Platform:      platform(),
		Exports:       a.module.exports(),
		Imports:       a.module.imports(),
		Payload:       payload,
	})
	if err != nil {
		return nil, errors.IO(a.backend.String(), "encode artifact envelope", err)
	}
	return data, nil
}

// Instantiate links the artifact against an empty import set and runs its
// start function. Any import is reported as an instantiation error listing
// every unresolved import.
func (a *Artifact) Instantiate(ctx context.Context) (*Instance, error) {
	if imports := a.module.imports(); len(imports) > 0 {
		return nil, errors.Instantiation(a.backend.String(), errors.NewMissingImportsError(imports))
	}

	native, err := a.module.instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(a.backend.String(), err)
	}
	return &Instance{
		backend: a.backend,
		entry:   a.compiler.cfg.Entry,
		native:  native,
	}, nil
}

// Close releases the native module. Safe to call more than once.
func (a *Artifact) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.closeErr = a.module.close(ctx)
	})
	return a.closeErr
}

// Instance is a live module instance. It is not safe for concurrent use.
type Instance struct {
	native  nativeInstance
	fn      nativeFunc
	entry   string
	backend backend.Backend
	closed  bool
}

// Backend returns the backend the instance runs on.
func (i *Instance) Backend() backend.Backend {
	return i.backend
}

// Entry returns the export name Call invokes.
func (i *Instance) Entry() string {
	return i.entry
}

// Call invokes the entry export with arg. The export must have type
// (i32) -> i32. Traps, including stack exhaustion, are returned as call
// errors and never as a zero result.
func (i *Instance) Call(ctx context.Context, arg uint32) (uint32, error) {
	if i.closed {
		return 0, errors.New(errors.PhaseCall, errors.KindCall).
			Backend(i.backend.String()).
			Export(i.entry).
			Detail("instance closed").
			Build()
	}

	fn, err := i.resolve()
	if err != nil {
		return 0, err
	}

	result, err := fn.call(ctx, arg)
	if err != nil {
		return 0, errors.Trap(i.backend.String(), i.entry, err)
	}
	return result, nil
}

func (i *Instance) resolve() (nativeFunc, error) {
	if i.fn != nil {
		return i.fn, nil
	}
	fn, ok := i.native.lookup(i.entry)
	if !ok {
		return nil, errors.MissingExport(i.backend.String(), i.entry)
	}
	if sig := fn.signature(); !sig.isI32ToI32() {
		return nil, errors.SignatureMismatch(i.backend.String(), i.entry, sig.String())
	}
	i.fn = fn
	return fn, nil
}

// Close releases the instance. Safe to call more than once.
func (i *Instance) Close(ctx context.Context) error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.fn = nil
	return i.native.close(ctx)
}
