//go:build !wasmtime

package engine

import (
	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
)

func wasmtimeAvailable() bool { return false }

func newWasmtimeEngine(b backend.Backend, _ Config) (nativeEngine, error) {
	return nil, errors.Unsupported(b.String(), "built without the wasmtime tag")
}
