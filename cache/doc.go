// Package cache persists compiled artifacts on a filesystem, keyed by the
// digest of their serialized bytes.
//
// Layout:
//
//	{root}/{backend}/{key}               serialized artifact
//	{root}/{backend}/sources/{digest}    optional source index entry
//	{root}/{backend}/native/             engine-owned machine code cache
//
// Each backend has its own namespace. Loading a key under the wrong backend
// fails with cache_corrupt rather than cache_miss, and the bytes of an entry
// are checked against its key before they reach the engine.
//
// Store and Load are timed by the benchmark runner, so they log at debug
// level only.
package cache
