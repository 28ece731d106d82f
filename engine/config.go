package engine

const (
	// DefaultEntry is the export invoked by Instance.Call.
	DefaultEntry = "ext_run"

	// DefaultMemoryLimitPages caps linear memory at 8 MiB (128 x 64 KiB pages).
	DefaultMemoryLimitPages = 128
)

// Config holds configuration shared by every backend engine
type Config struct {
	// Entry is the export name called by Instance.Call. Empty means DefaultEntry.
	Entry string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means DefaultMemoryLimitPages.
	MemoryLimitPages uint32

	// NativeCacheDir enables wazero's file compilation cache for the
	// wazero-compiler backend. Artifacts stored through the cache then load
	// without recompiling to machine code. Empty disables it.
	NativeCacheDir string
}

func (c Config) withDefaults() Config {
	if c.Entry == "" {
		c.Entry = DefaultEntry
	}
	if c.MemoryLimitPages == 0 {
		c.MemoryLimitPages = DefaultMemoryLimitPages
	}
	return c
}
