// Package backend enumerates the compilation strategies the harness can
// benchmark.
//
// A Backend is a pure value. It names one native compiler of one engine:
//
//	Backend              Engine     Tier
//	─────────────────────────────────────────
//	wazero-interpreter   wazero     fast
//	wazero-compiler      wazero     optimizing
//	wasmtime-cranelift   wasmtime   optimizing
//	wasmer-singlepass    wasmer     fast
//	wasmer-cranelift     wasmer     optimizing
//	wasmer-llvm          wasmer     static-aot
//
// Parse is for external input and returns an error for unknown names.
// Everything else treats an unknown value as a programming error and panics.
package backend
