package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/wippyai/wasm-bench/backend"
)

// nativeEngine is one backend's compiler and loader. Implementations must be
// safe for concurrent use.
type nativeEngine interface {
	compile(ctx context.Context, wasm []byte) (nativeModule, error)
	deserialize(ctx context.Context, payload []byte) (nativeModule, error)
	version() string
	close(ctx context.Context) error
}

// nativeModule is a compiled module owned by exactly one Artifact.
type nativeModule interface {
	// imports lists every import as "module#name".
	imports() []string
	exports() []string
	serialize(ctx context.Context) ([]byte, error)
	instantiate(ctx context.Context) (nativeInstance, error)
	close(ctx context.Context) error
}

// nativeInstance is a live instance owned by exactly one Instance.
type nativeInstance interface {
	// lookup returns the named function export. ok is false when the module
	// does not export a function by that name.
	lookup(name string) (fn nativeFunc, ok bool)
	close(ctx context.Context) error
}

type nativeFunc interface {
	signature() signature
	call(ctx context.Context, arg uint32) (uint32, error)
}

// signature is a function type rendered with core value type names.
type signature struct {
	params  []string
	results []string
}

func (s signature) isI32ToI32() bool {
	return len(s.params) == 1 && s.params[0] == "i32" &&
		len(s.results) == 1 && s.results[0] == "i32"
}

func (s signature) String() string {
	return fmt.Sprintf("(%s) -> %s", strings.Join(s.params, ", "), strings.Join(s.results, ", "))
}

// Available reports whether b can compile in this binary. The cgo engines
// are only linked in when built with their build tags, and wasmer ships each
// compiler separately.
func Available(b backend.Backend) bool {
	switch b.MustValid() {
	case backend.WazeroInterpreter:
		return true
	case backend.WazeroCompiler:
		return wazeroCompilerSupported()
	case backend.WasmtimeCranelift:
		return wasmtimeAvailable()
	case backend.WasmerSinglepass, backend.WasmerCranelift, backend.WasmerLLVM:
		return wasmerAvailable(b)
	default:
		panic(fmt.Sprintf("engine: unhandled backend %q", b))
	}
}

// open creates the native engine for b.
func open(ctx context.Context, b backend.Backend, cfg Config) (nativeEngine, error) {
	switch b.MustValid() {
	case backend.WazeroInterpreter, backend.WazeroCompiler:
		return newWazeroEngine(ctx, b, cfg)
	case backend.WasmtimeCranelift:
		return newWasmtimeEngine(b, cfg)
	case backend.WasmerSinglepass, backend.WasmerCranelift, backend.WasmerLLVM:
		return newWasmerEngine(b, cfg)
	default:
		panic(fmt.Sprintf("engine: unhandled backend %q", b))
	}
}
