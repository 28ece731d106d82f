package cache

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
)

// sourcePath locates the index entry for module bytes under backend b.
// Index entries are named by the digest of the module, not of the artifact.
func (c *Cache) sourcePath(b backend.Backend, wasm []byte) string {
	return filepath.Join(c.Dir(b), sourcesDir, KeyOf(wasm).String())
}

// Index records that wasm compiled under backend b produced the artifact
// stored as key, so Lookup can skip recompiling the same bytes.
func (c *Cache) Index(b backend.Backend, wasm []byte, key Key) error {
	if _, err := ParseKey(key.String()); err != nil {
		return err
	}
	return c.writeAtomic(b, c.sourcePath(b, wasm), []byte(key))
}

// Lookup returns the key recorded by Index for wasm under backend b. It
// reports false when either the index entry or the artifact entry is absent.
func (c *Cache) Lookup(b backend.Backend, wasm []byte) (Key, bool, error) {
	data, err := afero.ReadFile(c.fs, c.sourcePath(b, wasm))
	if err != nil {
		if isNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.IO(b.String(), "read source index", err)
	}

	key, err := ParseKey(strings.TrimSpace(string(data)))
	if err != nil {
		Logger().Warn("ignoring malformed source index entry",
			zap.String("backend", b.String()),
			zap.String("path", c.sourcePath(b, wasm)))
		return "", false, nil
	}
	if !c.Has(b, key) {
		return "", false, nil
	}
	return key, true, nil
}
