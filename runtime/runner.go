package runtime

import (
	"context"
	"time"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/cache"
	"github.com/wippyai/wasm-bench/engine"
	"github.com/wippyai/wasm-bench/errors"
)

// Runner executes modules on one backend. Every mode has the same shape on
// every backend so drivers can time them side by side. Each mode closes the
// artifacts and instances it creates on every path.
type Runner struct {
	runtime *Runtime
	backend backend.Backend
}

// Backend returns the backend every operation of r runs on.
func (r *Runner) Backend() backend.Backend {
	return r.backend
}

// Compile compiles wasm without touching the cache.
func (r *Runner) Compile(ctx context.Context, wasm []byte) (*engine.Artifact, error) {
	return r.runtime.compiler.Compile(ctx, r.backend, wasm)
}

// Instantiate creates an instance of an artifact. The caller closes both.
func (r *Runner) Instantiate(ctx context.Context, art *engine.Artifact) (*engine.Instance, error) {
	return art.Instantiate(ctx)
}

// JIT compiles, instantiates and calls in one go.
func (r *Runner) JIT(ctx context.Context, wasm []byte, arg uint32) (uint32, error) {
	art, err := r.Compile(ctx, wasm)
	if err != nil {
		return 0, err
	}
	defer art.Close(ctx)

	return callOnce(ctx, art, arg)
}

// AOTCompile compiles wasm and stores the artifact, returning its key. With
// the source index enabled, bytes compiled before return the stored key
// without compiling.
func (r *Runner) AOTCompile(ctx context.Context, wasm []byte) (cache.Key, error) {
	c := r.runtime.cache
	if r.runtime.cfg.SourceIndex {
		key, ok, err := c.Lookup(r.backend, wasm)
		if err != nil {
			return "", err
		}
		if ok {
			return key, nil
		}
	}

	art, err := r.Compile(ctx, wasm)
	if err != nil {
		return "", err
	}
	defer art.Close(ctx)

	key, err := c.Store(ctx, art)
	if err != nil {
		return "", err
	}
	if r.runtime.cfg.SourceIndex {
		if err := c.Index(r.backend, wasm, key); err != nil {
			return "", err
		}
	}
	return key, nil
}

// AOTExecute loads the artifact stored as key, instantiates it and calls it.
func (r *Runner) AOTExecute(ctx context.Context, key cache.Key, arg uint32) (uint32, error) {
	art, err := r.runtime.cache.Load(ctx, r.backend, key)
	if err != nil {
		return 0, err
	}
	defer art.Close(ctx)

	return callOnce(ctx, art, arg)
}

// AOTTotal runs AOTCompile then AOTExecute. Its result always equals JIT's.
func (r *Runner) AOTTotal(ctx context.Context, wasm []byte, arg uint32) (uint32, error) {
	key, err := r.AOTCompile(ctx, wasm)
	if err != nil {
		return 0, err
	}
	return r.AOTExecute(ctx, key, arg)
}

// Prepare compiles and instantiates wasm so calls can be timed alone.
func (r *Runner) Prepare(ctx context.Context, wasm []byte) (*Prepared, error) {
	art, err := r.Compile(ctx, wasm)
	if err != nil {
		return nil, err
	}
	inst, err := art.Instantiate(ctx)
	if err != nil {
		art.Close(ctx)
		return nil, err
	}
	return &Prepared{artifact: art, instance: inst}, nil
}

// Call invokes a prepared instance.
func (r *Runner) Call(ctx context.Context, p *Prepared, arg uint32) (uint32, error) {
	return p.Call(ctx, arg)
}

func callOnce(ctx context.Context, art *engine.Artifact, arg uint32) (uint32, error) {
	inst, err := art.Instantiate(ctx)
	if err != nil {
		return 0, err
	}
	defer inst.Close(ctx)

	return inst.Call(ctx, arg)
}

// Prepared is an instance together with the artifact it was created from.
// It is not safe for concurrent use.
type Prepared struct {
	artifact *engine.Artifact
	instance *engine.Instance
}

// Call invokes the entry export of the prepared instance.
func (p *Prepared) Call(ctx context.Context, arg uint32) (uint32, error) {
	return p.instance.Call(ctx, arg)
}

// Close releases the instance, then the artifact.
func (p *Prepared) Close(ctx context.Context) error {
	err := p.instance.Close(ctx)
	if cerr := p.artifact.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// Mode names one timed operation.
type Mode string

const (
	ModeJIT        Mode = "jit"
	ModeAOTCompile Mode = "aot_c"
	ModeAOTExecute Mode = "aot_e"
	ModeAOTTotal   Mode = "aot_t"
	ModeCall       Mode = "call"
)

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{ModeJIT, ModeAOTCompile, ModeAOTExecute, ModeAOTTotal, ModeCall}
}

// ParseMode converts a mode name from the command line or config.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.InvalidInput(errors.PhaseConfig, "unknown mode "+s)
}

// Input carries the operands of every mode. Wasm is read by jit, aot_c,
// aot_t and call; Key by aot_e; Arg by all but aot_c.
type Input struct {
	Key  cache.Key
	Wasm []byte
	Arg  uint32
}

// Outcome is the result of one Run.
type Outcome struct {
	Mode    Mode
	Backend backend.Backend
	Key     cache.Key
	Elapsed time.Duration
	Result  uint32
}

// Run dispatches mode and times it. For ModeCall only the call is timed;
// the instance is prepared beforehand and released afterwards.
func (r *Runner) Run(ctx context.Context, mode Mode, in Input) (Outcome, error) {
	out := Outcome{Mode: mode, Backend: r.backend}

	var err error
	switch mode {
	case ModeJIT:
		start := time.Now()
		out.Result, err = r.JIT(ctx, in.Wasm, in.Arg)
		out.Elapsed = time.Since(start)
	case ModeAOTCompile:
		start := time.Now()
		out.Key, err = r.AOTCompile(ctx, in.Wasm)
		out.Elapsed = time.Since(start)
	case ModeAOTExecute:
		if in.Key == "" {
			return out, errors.InvalidInput(errors.PhaseConfig, "aot_e needs a key")
		}
		out.Key = in.Key
		start := time.Now()
		out.Result, err = r.AOTExecute(ctx, in.Key, in.Arg)
		out.Elapsed = time.Since(start)
	case ModeAOTTotal:
		start := time.Now()
		out.Result, err = r.AOTTotal(ctx, in.Wasm, in.Arg)
		out.Elapsed = time.Since(start)
	case ModeCall:
		p, perr := r.Prepare(ctx, in.Wasm)
		if perr != nil {
			return out, perr
		}
		defer p.Close(ctx)
		start := time.Now()
		out.Result, err = p.Call(ctx, in.Arg)
		out.Elapsed = time.Since(start)
	default:
		return out, errors.InvalidInput(errors.PhaseConfig, "unknown mode "+string(mode))
	}
	return out, err
}
