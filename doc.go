// Package wasmbench compares WebAssembly runtimes by compiling one core
// module with several native backends and timing each phase separately.
//
// # Architecture Overview
//
//	wasmbench/           Root package (documentation only)
//	├── backend/         Closed set of backend identifiers
//	├── engine/          wazero, wasmtime and wasmer behind one Compiler
//	├── cache/           Content-addressed, per-backend artifact store
//	├── runtime/         Runners for the jit, aot_c, aot_e, aot_t and call modes
//	├── config/          YAML and WASMBENCH_* environment configuration
//	├── errors/          Structured error types
//	└── cmd/wasmbench/   Command line and interactive front end
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, runtime.Config{CacheDir: "./tmp"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	r := rt.Runner(backend.WazeroCompiler)
//	key, err := r.AOTCompile(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := r.AOTExecute(ctx, key, 30)
//
// # Backends
//
// wazero backends are always built. wasmtime-cranelift needs the wasmtime
// build tag and the wasmer backends need the wasmer tag; both link native
// libraries through cgo. engine.Available reports what the running binary
// supports.
//
// # Entry Point
//
// Every module must export a function of WIT type func(n: u32) -> u32,
// named ext_run unless configured otherwise. Modules may not import
// anything.
package wasmbench
