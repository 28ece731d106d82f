// Package errors provides structured error types for the benchmark harness.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The kinds form the harness taxonomy:
//
//	compile_error   module invalid or unsupported by the backend; never retried
//	cache_miss      no artifact stored under the requested key
//	cache_corrupt   stored bytes exist but cannot be loaded under the backend
//	instantiation   unresolved import or a trapping start function
//	call_error      missing export, wrong signature, or a trap during the call
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCache, errors.KindCacheCorrupt).
//		Backend("wazero-compiler").
//		Key(key).
//		Detail("artifact compiled for %s", other).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CacheMiss(backend, key)
//	err := errors.Trap(backend, "ext_run", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any error of the same phase and kind:
//
//	if errors.Is(err, errors.ErrCacheMiss) { ... }
package errors
