//go:build wasmtime

package engine

import (
	"context"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go"

	"github.com/wippyai/wasm-bench/backend"
)

const wasmtimeModulePath = "github.com/bytecodealliance/wasmtime-go"

func wasmtimeAvailable() bool { return true }

// wasmtimeEngine serves wasmtime-cranelift. wasmtime-go v0.35 has no store
// limiter, so Config.MemoryLimitPages is not enforced on this backend.
type wasmtimeEngine struct {
	engine *wasmtime.Engine
	ver    string
}

func newWasmtimeEngine(_ backend.Backend, _ Config) (nativeEngine, error) {
	config := wasmtime.NewConfig()
	config.SetCraneliftOptLevel(wasmtime.OptLevelSpeed)
	return &wasmtimeEngine{
		engine: wasmtime.NewEngineWithConfig(config),
		ver:    "wasmtime " + moduleVersion(wasmtimeModulePath),
	}, nil
}

func (e *wasmtimeEngine) compile(_ context.Context, wasm []byte) (nativeModule, error) {
	m, err := wasmtime.NewModule(e.engine, wasm)
	if err != nil {
		return nil, err
	}
	return &wasmtimeModule{engine: e, module: m}, nil
}

func (e *wasmtimeEngine) deserialize(_ context.Context, payload []byte) (nativeModule, error) {
	m, err := wasmtime.NewModuleDeserialize(e.engine, payload)
	if err != nil {
		return nil, err
	}
	return &wasmtimeModule{engine: e, module: m}, nil
}

func (e *wasmtimeEngine) version() string { return e.ver }

// wasmtime-go releases engines through finalizers only.
func (e *wasmtimeEngine) close(context.Context) error {
	e.engine = nil
	return nil
}

type wasmtimeModule struct {
	engine *wasmtimeEngine
	module *wasmtime.Module
}

func (m *wasmtimeModule) imports() []string {
	var out []string
	for _, imp := range m.module.Type().Imports() {
		name := ""
		if n := imp.Name(); n != nil {
			name = *n
		}
		out = append(out, imp.Module()+"#"+name)
	}
	return out
}

func (m *wasmtimeModule) exports() []string {
	var out []string
	for _, exp := range m.module.Type().Exports() {
		if exp.Type().FuncType() != nil {
			out = append(out, exp.Name())
		}
	}
	return out
}

func (m *wasmtimeModule) serialize(context.Context) ([]byte, error) {
	return m.module.Serialize()
}

func (m *wasmtimeModule) instantiate(context.Context) (nativeInstance, error) {
	// A store per instance: wasmtime caps the number of instances per store.
	store := wasmtime.NewStore(m.engine.engine)
	inst, err := wasmtime.NewInstance(store, m.module, nil)
	if err != nil {
		return nil, err
	}
	return &wasmtimeInstance{store: store, instance: inst}, nil
}

func (m *wasmtimeModule) close(context.Context) error {
	m.module = nil
	return nil
}

type wasmtimeInstance struct {
	store    *wasmtime.Store
	instance *wasmtime.Instance
}

func (i *wasmtimeInstance) lookup(name string) (nativeFunc, bool) {
	fn := i.instance.GetFunc(i.store, name)
	if fn == nil {
		return nil, false
	}
	return wasmtimeFunc{store: i.store, fn: fn}, true
}

func (i *wasmtimeInstance) close(context.Context) error {
	i.store = nil
	i.instance = nil
	return nil
}

type wasmtimeFunc struct {
	store *wasmtime.Store
	fn    *wasmtime.Func
}

func (f wasmtimeFunc) signature() signature {
	ft := f.fn.Type(f.store)
	return signature{
		params:  wasmtimeTypeNames(ft.Params()),
		results: wasmtimeTypeNames(ft.Results()),
	}
}

func (f wasmtimeFunc) call(_ context.Context, arg uint32) (uint32, error) {
	result, err := f.fn.Call(f.store, int32(arg))
	if err != nil {
		return 0, err
	}
	v, ok := result.(int32)
	if !ok {
		return 0, fmt.Errorf("unexpected result %T", result)
	}
	return uint32(v), nil
}

func wasmtimeTypeNames(types []*wasmtime.ValType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		switch t.Kind() {
		case wasmtime.KindI32:
			out[i] = "i32"
		case wasmtime.KindI64:
			out[i] = "i64"
		case wasmtime.KindF32:
			out[i] = "f32"
		case wasmtime.KindF64:
			out[i] = "f64"
		default:
			out[i] = fmt.Sprintf("kind(%d)", t.Kind())
		}
	}
	return out
}
