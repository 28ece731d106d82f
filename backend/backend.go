package backend

import (
	"fmt"
	"strings"
)

// Backend names a native compilation strategy. The set is closed: every
// value used by the compiler or the cache must be one of the constants below.
type Backend string

const (
	WazeroInterpreter Backend = "wazero-interpreter"
	WazeroCompiler    Backend = "wazero-compiler"
	WasmtimeCranelift Backend = "wasmtime-cranelift"
	WasmerSinglepass  Backend = "wasmer-singlepass"
	WasmerCranelift   Backend = "wasmer-cranelift"
	WasmerLLVM        Backend = "wasmer-llvm"
)

// Engine names the runtime that owns a backend.
type Engine string

const (
	EngineWazero   Engine = "wazero"
	EngineWasmtime Engine = "wasmtime"
	EngineWasmer   Engine = "wasmer"
)

// Tier describes how much work a backend spends compiling.
type Tier string

const (
	TierFast       Tier = "fast"       // baseline/single pass, or no native code at all
	TierOptimizing Tier = "optimizing" // optimizing JIT compiler
	TierStaticAOT  Tier = "static-aot" // heavyweight ahead-of-time optimizer
)

type info struct {
	engine Engine
	tier   Tier
}

var known = map[Backend]info{
	WazeroInterpreter: {EngineWazero, TierFast},
	WazeroCompiler:    {EngineWazero, TierOptimizing},
	WasmtimeCranelift: {EngineWasmtime, TierOptimizing},
	WasmerSinglepass:  {EngineWasmer, TierFast},
	WasmerCranelift:   {EngineWasmer, TierOptimizing},
	WasmerLLVM:        {EngineWasmer, TierStaticAOT},
}

var order = []Backend{
	WazeroInterpreter,
	WazeroCompiler,
	WasmtimeCranelift,
	WasmerSinglepass,
	WasmerCranelift,
	WasmerLLVM,
}

// All returns every known backend in a stable order.
func All() []Backend {
	out := make([]Backend, len(order))
	copy(out, order)
	return out
}

// Parse converts external input (flags, config files) into a Backend.
func Parse(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := known[b]; !ok {
		return "", fmt.Errorf("unknown backend %q (known: %s)", s, strings.Join(names(), ", "))
	}
	return b, nil
}

// Valid reports whether b is one of the known backends.
func (b Backend) Valid() bool {
	_, ok := known[b]
	return ok
}

// MustValid panics if b is not a known backend. An unknown value can only
// come from a coding mistake, so it is not reported as an error.
func (b Backend) MustValid() Backend {
	if !b.Valid() {
		panic(fmt.Sprintf("backend: unknown backend %q", string(b)))
	}
	return b
}

func (b Backend) Engine() Engine {
	return known[b.MustValid()].engine
}

func (b Backend) Tier() Tier {
	return known[b.MustValid()].tier
}

func (b Backend) String() string {
	return string(b)
}

func names() []string {
	out := make([]string, len(order))
	for i, b := range order {
		out[i] = string(b)
	}
	return out
}
