//go:build !wasmer

package engine

import (
	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
)

func wasmerAvailable(backend.Backend) bool { return false }

func newWasmerEngine(b backend.Backend, _ Config) (nativeEngine, error) {
	return nil, errors.Unsupported(b.String(), "built without the wasmer tag")
}
