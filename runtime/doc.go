// Package runtime is the facade benchmark drivers use to compare JIT and AOT
// execution across backends.
//
// A Runtime owns one engine.Compiler and one cache.Cache. Runner(b) returns a
// per-backend runner with the same operations for every backend:
//
//	JIT(wasm, arg)        compile, instantiate, call
//	AOTCompile(wasm)      compile, store; returns the cache key
//	AOTExecute(key, arg)  load, instantiate, call
//	AOTTotal(wasm, arg)   AOTCompile then AOTExecute
//	Prepare(wasm) + Call  instance built once, call timed alone
//
// Run dispatches any of these by Mode and measures elapsed wall time. No
// statistics are computed here.
//
// # Entry Point
//
// The called export is declared in WIT function syntax:
//
//	rt, err := runtime.New(ctx, runtime.Config{
//	    CacheDir: dir,
//	    Entry:    "ext_run: func(n: u32) -> u32",
//	})
//
// The declaration must take one u32 and return one u32.
package runtime
