// Package wasmtest builds the small core modules used by tests across the
// module. Each fixture is assembled with wabin so tests never depend on
// checked-in binaries.
package wasmtest

import (
	"github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/wasm"
)

// Entry is the export name the fixtures use for their (i32) -> i32 function.
const Entry = "ext_run"

// blockI32 is the block type of an if that leaves one i32 on the stack.
const blockI32 = wasm.ValueTypeI32

var (
	i32ToI32 = &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	voidToI32  = &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}
	voidToVoid = &wasm.FunctionType{}
)

// fibBody computes fib(n) = n < 2 ? 1 : fib(n-1) + fib(n-2) by calling
// function index self.
func fibBody(self byte) []byte {
	return []byte{
		wasm.OpcodeLocalGet, 0, wasm.OpcodeI32Const, 2, wasm.OpcodeI32LtU,
		wasm.OpcodeIf, blockI32,
		wasm.OpcodeI32Const, 1,
		wasm.OpcodeElse,
		wasm.OpcodeLocalGet, 0, wasm.OpcodeI32Const, 1, wasm.OpcodeI32Sub, wasm.OpcodeCall, self,
		wasm.OpcodeLocalGet, 0, wasm.OpcodeI32Const, 2, wasm.OpcodeI32Sub, wasm.OpcodeCall, self,
		wasm.OpcodeI32Add,
		wasm.OpcodeEnd,
		wasm.OpcodeEnd,
	}
}

// single encodes a module with one (i32) -> i32 function exported as name.
func single(name string, body []byte) []byte {
	return binary.EncodeModule(&wasm.Module{
		TypeSection:     []*wasm.FunctionType{i32ToI32},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: body}},
		ExportSection:   []*wasm.Export{{Type: wasm.ExternTypeFunc, Name: name, Index: 0}},
	})
}

// Fib exports the recursive Fibonacci benchmark as ext_run.
func Fib() []byte {
	return FibExportedAs(Entry)
}

// FibExportedAs is Fib with the function exported under another name.
func FibExportedAs(name string) []byte {
	return single(name, fibBody(0))
}

// AddOne exports ext_run(n) = n + 1.
func AddOne() []byte {
	return single(Entry, []byte{wasm.OpcodeLocalGet, 0, wasm.OpcodeI32Const, 1, wasm.OpcodeI32Add, wasm.OpcodeEnd})
}

// Unreachable exports an ext_run that always traps.
func Unreachable() []byte {
	return single(Entry, []byte{wasm.OpcodeUnreachable, wasm.OpcodeEnd})
}

// InfiniteRecursion exports an ext_run that exhausts the call stack.
func InfiniteRecursion() []byte {
	return single(Entry, []byte{wasm.OpcodeLocalGet, 0, wasm.OpcodeCall, 0, wasm.OpcodeEnd})
}

// WrongSignature exports ext_run with type () -> i32.
func WrongSignature() []byte {
	return binary.EncodeModule(&wasm.Module{
		TypeSection:     []*wasm.FunctionType{voidToI32},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: []byte{wasm.OpcodeI32Const, 7, wasm.OpcodeEnd}}},
		ExportSection:   []*wasm.Export{{Type: wasm.ExternTypeFunc, Name: Entry, Index: 0}},
	})
}

// WithImport imports env.f and exports a local identity function as ext_run.
func WithImport() []byte {
	return binary.EncodeModule(&wasm.Module{
		TypeSection: []*wasm.FunctionType{i32ToI32},
		ImportSection: []*wasm.Import{
			{Type: wasm.ExternTypeFunc, Module: "env", Name: "f", DescFunc: 0},
		},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: []byte{wasm.OpcodeLocalGet, 0, wasm.OpcodeEnd}}},
		ExportSection:   []*wasm.Export{{Type: wasm.ExternTypeFunc, Name: Entry, Index: 1}},
	})
}

// StartTrap has a start function that traps during instantiation.
func StartTrap() []byte {
	start := wasm.Index(0)
	return binary.EncodeModule(&wasm.Module{
		TypeSection:     []*wasm.FunctionType{voidToVoid, i32ToI32},
		FunctionSection: []wasm.Index{0, 1},
		CodeSection: []*wasm.Code{
			{Body: []byte{wasm.OpcodeUnreachable, wasm.OpcodeEnd}},
			{Body: []byte{wasm.OpcodeLocalGet, 0, wasm.OpcodeEnd}},
		},
		ExportSection: []*wasm.Export{{Type: wasm.ExternTypeFunc, Name: Entry, Index: 1}},
		StartSection:  &start,
	})
}

// Malformed returns bytes that are not a WebAssembly module.
func Malformed() []byte {
	return []byte("not a wasm module")
}

// FibNative is the reference implementation of the benchmark workload.
func FibNative(n uint32) uint32 {
	if n < 2 {
		return 1
	}
	return FibNative(n-1) + FibNative(n-2)
}
