package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/wasm"
)

type exportInfo struct {
	name string
	kind string
	sig  string
}

type moduleInfo struct {
	imports []string
	exports []exportInfo
}

// inspect decodes the module without compiling it.
func inspect(bin []byte) (*moduleInfo, error) {
	m, err := binary.DecodeModule(bin, wasm.CoreFeaturesV2)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	info := &moduleInfo{}
	var funcTypes []wasm.Index
	for _, imp := range m.ImportSection {
		info.imports = append(info.imports, fmt.Sprintf("%s#%s (%s)", imp.Module, imp.Name, wasm.ExternTypeName(imp.Type)))
		if imp.Type == wasm.ExternTypeFunc {
			funcTypes = append(funcTypes, imp.DescFunc)
		}
	}
	funcTypes = append(funcTypes, m.FunctionSection...)

	for _, exp := range m.ExportSection {
		e := exportInfo{name: exp.Name, kind: wasm.ExternTypeName(exp.Type)}
		if exp.Type == wasm.ExternTypeFunc && int(exp.Index) < len(funcTypes) {
			if ti := funcTypes[exp.Index]; int(ti) < len(m.TypeSection) {
				e.sig = formatSig(m.TypeSection[ti])
			}
		}
		info.exports = append(info.exports, e)
	}
	sort.Slice(info.exports, func(i, j int) bool { return info.exports[i].name < info.exports[j].name })
	return info, nil
}

func formatSig(ft *wasm.FunctionType) string {
	names := func(vs []wasm.ValueType) string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = wasm.ValueTypeName(v)
		}
		return strings.Join(out, ", ")
	}
	s := "(" + names(ft.Params) + ")"
	if len(ft.Results) > 0 {
		s += " -> " + names(ft.Results)
	}
	return s
}

func (e exportInfo) String() string {
	if e.sig == "" {
		return e.name + " " + e.kind
	}
	return e.name + e.sig
}
