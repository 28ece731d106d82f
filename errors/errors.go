package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile     Phase = "compile"     // native compilation
	PhaseCache       Phase = "cache"       // artifact store/load
	PhaseInstantiate Phase = "instantiate" // linking and start function
	PhaseCall        Phase = "call"        // entry point invocation
	PhaseConfig      Phase = "config"      // configuration and input parsing
)

// Kind categorizes the error
type Kind string

const (
	KindCompile       Kind = "compile_error"
	KindCacheMiss     Kind = "cache_miss"
	KindCacheCorrupt  Kind = "cache_corrupt"
	KindInstantiation Kind = "instantiation"
	KindCall          Kind = "call_error"
	KindInvalidInput  Kind = "invalid_input"
	KindIO            Kind = "io"
)

// Sentinels for errors.Is. Each matches any *Error of the same phase and kind.
var (
	ErrCompile       = &Error{Phase: PhaseCompile, Kind: KindCompile}
	ErrCacheMiss     = &Error{Phase: PhaseCache, Kind: KindCacheMiss}
	ErrCacheCorrupt  = &Error{Phase: PhaseCache, Kind: KindCacheCorrupt}
	ErrInstantiation = &Error{Phase: PhaseInstantiate, Kind: KindInstantiation}
	ErrCall          = &Error{Phase: PhaseCall, Kind: KindCall}
	ErrIO            = &Error{Phase: PhaseCache, Kind: KindIO}
)

// Error is the structured error type used throughout the harness
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Backend string
	Key     string
	Export  string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Backend != "" {
		b.WriteString(" backend=")
		b.WriteString(e.Backend)
	}
	if e.Key != "" {
		b.WriteString(" key=")
		b.WriteString(e.Key)
	}
	if e.Export != "" {
		b.WriteString(" export=")
		b.WriteString(e.Export)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Backend sets the backend name
func (b *Builder) Backend(name string) *Builder {
	b.err.Backend = name
	return b
}

// Key sets the module key
func (b *Builder) Key(key string) *Builder {
	b.err.Key = key
	return b
}

// Export sets the export name
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the error taxonomy

// Compile creates a compile error. Compile failures are deterministic for a
// given module and backend and are never retried.
func Compile(backend string, cause error) *Error {
	return &Error{
		Phase:   PhaseCompile,
		Kind:    KindCompile,
		Backend: backend,
		Detail:  "compile module",
		Cause:   cause,
	}
}

// Unsupported creates a compile error for a backend that cannot run here
func Unsupported(backend, detail string) *Error {
	return &Error{
		Phase:   PhaseCompile,
		Kind:    KindCompile,
		Backend: backend,
		Detail:  detail,
	}
}

// CacheMiss creates a cache miss error
func CacheMiss(backend, key string) *Error {
	return &Error{
		Phase:   PhaseCache,
		Kind:    KindCacheMiss,
		Backend: backend,
		Key:     key,
		Detail:  "no stored artifact",
	}
}

// CacheCorrupt creates an error for stored bytes that cannot be loaded
func CacheCorrupt(backend, key, detail string, cause error) *Error {
	return &Error{
		Phase:   PhaseCache,
		Kind:    KindCacheCorrupt,
		Backend: backend,
		Key:     key,
		Detail:  detail,
		Cause:   cause,
	}
}

// IO creates a cache I/O error
func IO(backend, detail string, cause error) *Error {
	return &Error{
		Phase:   PhaseCache,
		Kind:    KindIO,
		Backend: backend,
		Detail:  detail,
		Cause:   cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation creates an instantiation error
func Instantiation(backend string, cause error) *Error {
	return &Error{
		Phase:   PhaseInstantiate,
		Kind:    KindInstantiation,
		Backend: backend,
		Detail:  "instantiate module",
		Cause:   cause,
	}
}

// MissingExport creates a call error for an entry point the module does not export
func MissingExport(backend, name string) *Error {
	return &Error{
		Phase:   PhaseCall,
		Kind:    KindCall,
		Backend: backend,
		Export:  name,
		Detail:  fmt.Sprintf("function %q not exported", name),
	}
}

// SignatureMismatch creates a call error for an entry point with the wrong type
func SignatureMismatch(backend, name, got string) *Error {
	return &Error{
		Phase:   PhaseCall,
		Kind:    KindCall,
		Backend: backend,
		Export:  name,
		Detail:  fmt.Sprintf("signature %s, want (i32) -> i32", got),
	}
}

// Trap creates a call error for a runtime fault raised by the guest
func Trap(backend, name string, cause error) *Error {
	return &Error{
		Phase:   PhaseCall,
		Kind:    KindCall,
		Backend: backend,
		Export:  name,
		Detail:  "trap",
		Cause:   cause,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Module string // e.g., "env"
	Name   string // e.g., "log"
}

// MissingImportsError is returned when a module imports anything. The
// harness links against an empty import set.
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "module#name" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		mod, name := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Module: mod,
			Name:   name,
		})
	}
	return result
}

func parseImportKey(key string) (module, name string) {
	mod, n, found := strings.Cut(key, "#")
	if found {
		return mod, n
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[instantiate] missing_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("unresolved %d import(s):\n", len(e.Imports)))

	// Group by module for cleaner output
	byMod := make(map[string][]string)
	var modOrder []string
	for _, imp := range e.Imports {
		if _, exists := byMod[imp.Module]; !exists {
			modOrder = append(modOrder, imp.Module)
		}
		byMod[imp.Module] = append(byMod[imp.Module], imp.Name)
	}

	for _, mod := range modOrder {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, name := range byMod[mod] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
