package runtime

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-bench/errors"
)

// DefaultEntry declares the benchmark entry point.
const DefaultEntry = "ext_run: func(n: u32) -> u32"

var entryPattern = regexp.MustCompile(`^(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?;?$`)

// ParseEntry parses a WIT function declaration and returns the export name.
// The declared function must take exactly one u32 and return one u32, the
// only shape every backend can call uniformly.
func ParseEntry(decl string) (string, error) {
	decl = strings.TrimSpace(decl)
	if decl == "" {
		decl = DefaultEntry
	}

	match := entryPattern.FindStringSubmatch(decl)
	if match == nil {
		return "", errors.InvalidInput(errors.PhaseConfig, "entry is not a WIT function declaration: "+decl)
	}
	name := match[1]

	params := splitParams(match[2])
	if len(params) != 1 {
		return "", errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Export(name).
			Detail("entry takes %d parameters, want 1", len(params)).
			Build()
	}
	typStr := params[0]
	if idx := strings.LastIndex(typStr, ":"); idx != -1 {
		typStr = typStr[idx+1:]
	}
	if err := requireU32(name, "parameter", typStr); err != nil {
		return "", err
	}

	result := strings.TrimSpace(match[3])
	if strings.HasPrefix(result, "(") && strings.HasSuffix(result, ")") {
		result = strings.TrimSpace(result[1 : len(result)-1])
	}
	if result == "" {
		return "", errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Export(name).
			Detail("entry has no result, want u32").
			Build()
	}
	if err := requireU32(name, "result", result); err != nil {
		return "", err
	}

	return name, nil
}

func requireU32(name, what, typStr string) error {
	typStr = strings.TrimSpace(typStr)
	t, err := wit.ParseType(typStr)
	if err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Export(name).
			Detail("parse %s type %q", what, typStr).
			Cause(err).
			Build()
	}
	if _, ok := t.(wit.U32); !ok {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Export(name).
			Detail("%s type %s, want u32", what, typStr).
			Build()
	}
	return nil
}

// splitParams splits parameter list, handling nested parens.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}
