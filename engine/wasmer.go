//go:build wasmer

package engine

import (
	"context"
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/wippyai/wasm-bench/backend"
)

const wasmerModulePath = "github.com/wasmerio/wasmer-go"

func wasmerCompiler(b backend.Backend) wasmer.CompilerKind {
	switch b {
	case backend.WasmerSinglepass:
		return wasmer.SINGLEPASS
	case backend.WasmerCranelift:
		return wasmer.CRANELIFT
	case backend.WasmerLLVM:
		return wasmer.LLVM
	default:
		panic(fmt.Sprintf("engine: %q is not a wasmer backend", b))
	}
}

// wasmerAvailable reports whether the linked wasmer library ships the
// backend's compiler. Prebuilt libraries usually omit LLVM.
func wasmerAvailable(b backend.Backend) bool {
	return wasmer.IsCompilerAvailable(wasmerCompiler(b))
}

// wasmerEngine does not enforce the memory limit: wasmer-go exposes no
// store limiter.
type wasmerEngine struct {
	engine *wasmer.Engine
	ver    string
}

func newWasmerEngine(b backend.Backend, _ Config) (nativeEngine, error) {
	config := wasmer.NewConfig()
	switch wasmerCompiler(b) {
	case wasmer.SINGLEPASS:
		config.UseSinglepassCompiler()
	case wasmer.CRANELIFT:
		config.UseCraneliftCompiler()
	case wasmer.LLVM:
		config.UseLLVMCompiler()
	}
	return &wasmerEngine{
		engine: wasmer.NewEngineWithConfig(config),
		ver:    "wasmer " + moduleVersion(wasmerModulePath),
	}, nil
}

// Modules get their own store so closing one never invalidates another.
func (e *wasmerEngine) compile(_ context.Context, wasm []byte) (nativeModule, error) {
	store := wasmer.NewStore(e.engine)
	m, err := wasmer.NewModule(store, wasm)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &wasmerModule{store: store, module: m}, nil
}

func (e *wasmerEngine) deserialize(_ context.Context, payload []byte) (nativeModule, error) {
	store := wasmer.NewStore(e.engine)
	m, err := wasmer.DeserializeModule(store, payload)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &wasmerModule{store: store, module: m}, nil
}

func (e *wasmerEngine) version() string { return e.ver }

func (e *wasmerEngine) close(context.Context) error {
	e.engine = nil
	return nil
}

type wasmerModule struct {
	store  *wasmer.Store
	module *wasmer.Module
}

func (m *wasmerModule) imports() []string {
	var out []string
	for _, imp := range m.module.Imports() {
		out = append(out, imp.Module()+"#"+imp.Name())
	}
	return out
}

func (m *wasmerModule) exports() []string {
	var out []string
	for _, exp := range m.module.Exports() {
		if exp.Type().Kind() == wasmer.FUNCTION {
			out = append(out, exp.Name())
		}
	}
	return out
}

func (m *wasmerModule) serialize(context.Context) ([]byte, error) {
	return m.module.Serialize()
}

func (m *wasmerModule) instantiate(context.Context) (nativeInstance, error) {
	inst, err := wasmer.NewInstance(m.module, wasmer.NewImportObject())
	if err != nil {
		return nil, err
	}
	return &wasmerInstance{instance: inst}, nil
}

func (m *wasmerModule) close(context.Context) error {
	m.module.Close()
	m.store.Close()
	return nil
}

type wasmerInstance struct {
	instance *wasmer.Instance
}

func (i *wasmerInstance) lookup(name string) (nativeFunc, bool) {
	fn, err := i.instance.Exports.GetRawFunction(name)
	if err != nil || fn == nil {
		return nil, false
	}
	return wasmerFunc{fn: fn}, true
}

func (i *wasmerInstance) close(context.Context) error {
	i.instance.Close()
	return nil
}

type wasmerFunc struct {
	fn *wasmer.Function
}

func (f wasmerFunc) signature() signature {
	ft := f.fn.Type()
	return signature{
		params:  wasmerTypeNames(ft.Params()),
		results: wasmerTypeNames(ft.Results()),
	}
}

func (f wasmerFunc) call(_ context.Context, arg uint32) (uint32, error) {
	result, err := f.fn.Call(int32(arg))
	if err != nil {
		return 0, err
	}
	v, ok := result.(int32)
	if !ok {
		return 0, fmt.Errorf("unexpected result %T", result)
	}
	return uint32(v), nil
}

func wasmerTypeNames(types []*wasmer.ValueType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		switch t.Kind() {
		case wasmer.I32:
			out[i] = "i32"
		case wasmer.I64:
			out[i] = "i64"
		case wasmer.F32:
			out[i] = "f32"
		case wasmer.F64:
			out[i] = "f64"
		default:
			out[i] = t.Kind().String()
		}
	}
	return out
}
