// Package engine compiles, loads and runs core WebAssembly modules on
// interchangeable native backends.
//
// # Architecture
//
// The package exposes three types that look the same for every backend:
//
//	Compiler  - Lazily starts one native engine per backend and compiles or
//	            deserializes modules with it
//	Artifact  - A compiled module bound to its backend; serializable
//	Instance  - A live instance whose entry export is called with one u32
//
// Backends are dispatched by a closed switch over backend.Backend. wazero is
// pure Go and always linked. wasmtime and wasmer need cgo and are linked only
// when built with the wasmtime or wasmer tag:
//
//	go build -tags wasmtime,wasmer ./...
//	go test -tags wasmtime,wasmer ./engine/
//
// Available reports which backends work in the current binary.
//
// # Artifact Format
//
// Serialize wraps the native payload in a msgpack envelope recording the
// backend, engine version and platform. Deserialize refuses envelopes from
// any other backend, engine version or platform with a cache_corrupt error.
//
// wazero has no public serializer, so its payload is the module bytes. When
// Config.NativeCacheDir is set, Serialize also writes the machine code to
// wazero's file compilation cache so a later Deserialize skips compilation.
// Compile itself never touches that cache.
//
// # Call Contract
//
// Instantiate links against an empty import set. Call requires the entry
// export (default "ext_run") to have type (i32) -> i32:
//
//	art, err := c.Compile(ctx, backend.WazeroCompiler, wasm)
//	if err != nil {
//	    return err
//	}
//	defer art.Close(ctx)
//
//	inst, err := art.Instantiate(ctx)
//	if err != nil {
//	    return err
//	}
//	defer inst.Close(ctx)
//
//	result, err := inst.Call(ctx, 10)
package engine
