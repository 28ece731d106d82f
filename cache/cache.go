package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/engine"
	"github.com/wippyai/wasm-bench/errors"
)

const (
	tempPrefix = ".tmp-"
	sourcesDir = "sources"

	// NativeDir is the per-backend directory reserved for engine-owned
	// machine code caches.
	NativeDir = "native"
)

// Cache stores serialized artifacts under {root}/{backend}/{key}. Entries
// are written once through a temporary file and an atomic rename and never
// modified afterwards. Cache is safe for concurrent use.
type Cache struct {
	fs       afero.Fs
	compiler *engine.Compiler
	metrics  *metrics
	reg      prometheus.Registerer
	root     string
}

// Option configures a Cache.
type Option func(*Cache)

// WithFs sets the filesystem. The default is the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fsys
	}
}

// WithRegisterer registers the cache counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.reg = reg
	}
}

// New creates a cache rooted at root. Artifacts are deserialized with compiler.
func New(root string, compiler *engine.Compiler, opts ...Option) (*Cache, error) {
	if root == "" {
		return nil, errors.InvalidInput(errors.PhaseCache, "cache root is empty")
	}
	c := &Cache{
		fs:       afero.NewOsFs(),
		compiler: compiler,
		root:     filepath.Clean(root),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newMetrics(c.reg)
	return c, nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Dir returns the namespace directory of backend b.
func (c *Cache) Dir(b backend.Backend) string {
	return filepath.Join(c.root, b.MustValid().String())
}

// Path returns the location of the entry for key under backend b.
func (c *Cache) Path(b backend.Backend, key Key) string {
	return filepath.Join(c.Dir(b), key.String())
}

// Store serializes a and writes it under its key. Storing an artifact whose
// entry already exists leaves the entry untouched and returns the same key.
func (c *Cache) Store(ctx context.Context, a *engine.Artifact) (Key, error) {
	b := a.Backend()

	data, err := a.Serialize(ctx)
	if err != nil {
		return "", err
	}
	key := KeyOf(data)
	path := c.Path(b, key)

	if exists, _ := afero.Exists(c.fs, path); exists {
		c.metrics.stores.WithLabelValues(b.String(), resultExists).Inc()
		Logger().Debug("artifact already stored", zap.String("backend", b.String()), zap.String("key", key.String()))
		return key, nil
	}

	if err := c.writeAtomic(b, path, data); err != nil {
		return "", err
	}

	c.metrics.stores.WithLabelValues(b.String(), resultWritten).Inc()
	c.metrics.written.WithLabelValues(b.String()).Add(float64(len(data)))
	Logger().Debug("artifact stored",
		zap.String("backend", b.String()),
		zap.String("key", key.String()),
		zap.Int("bytes", len(data)))
	return key, nil
}

// writeAtomic writes data to path through a temporary file in the same
// directory. The temporary file never survives a failure.
func (c *Cache) writeAtomic(b backend.Backend, path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.IO(b.String(), "create cache directory", err)
	}

	tmp, err := afero.TempFile(c.fs, dir, tempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return errors.IO(b.String(), "create temporary file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = c.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.IO(b.String(), "write temporary file", err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.IO(b.String(), "sync temporary file", err)
	}
	if err = tmp.Close(); err != nil {
		return errors.IO(b.String(), "close temporary file", err)
	}
	if err = c.fs.Chmod(tmpName, 0o644); err != nil {
		return errors.IO(b.String(), "chmod temporary file", err)
	}
	if err = c.fs.Rename(tmpName, path); err != nil {
		return errors.IO(b.String(), "rename into place", err)
	}
	return nil
}

// Load reads the entry for key under backend b and deserializes it. Load
// never creates cache entries and never repairs broken ones.
func (c *Cache) Load(ctx context.Context, b backend.Backend, key Key) (*engine.Artifact, error) {
	if _, err := ParseKey(key.String()); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(c.fs, c.Path(b, key))
	if err != nil {
		if !isNotExist(err) {
			return nil, errors.New(errors.PhaseCache, errors.KindIO).
				Backend(b.String()).
				Key(key.String()).
				Detail("read entry").
				Cause(err).
				Build()
		}
		if owner, ok := c.owner(b, key); ok {
			c.metrics.loads.WithLabelValues(b.String(), resultCorrupt).Inc()
			return nil, errors.New(errors.PhaseCache, errors.KindCacheCorrupt).
				Backend(b.String()).
				Key(key.String()).
				Detail("artifact was compiled for %s", owner).
				Build()
		}
		c.metrics.loads.WithLabelValues(b.String(), resultMiss).Inc()
		return nil, errors.CacheMiss(b.String(), key.String())
	}

	if KeyOf(data) != key {
		c.metrics.loads.WithLabelValues(b.String(), resultCorrupt).Inc()
		Logger().Warn("cache entry does not match its key",
			zap.String("backend", b.String()),
			zap.String("key", key.String()),
			zap.Int("bytes", len(data)))
		return nil, errors.CacheCorrupt(b.String(), key.String(), "content digest does not match key", nil)
	}

	art, err := c.compiler.Deserialize(ctx, b, data)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) && e.Kind == errors.KindCacheCorrupt {
			e.Key = key.String()
			c.metrics.loads.WithLabelValues(b.String(), resultCorrupt).Inc()
		}
		return nil, err
	}

	c.metrics.loads.WithLabelValues(b.String(), resultHit).Inc()
	return art, nil
}

// owner finds another backend namespace holding key.
func (c *Cache) owner(b backend.Backend, key Key) (backend.Backend, bool) {
	for _, other := range backend.All() {
		if other == b {
			continue
		}
		if exists, _ := afero.Exists(c.fs, c.Path(other, key)); exists {
			return other, true
		}
	}
	return "", false
}

// Has reports whether an entry for key exists under backend b.
func (c *Cache) Has(b backend.Backend, key Key) bool {
	exists, err := afero.Exists(c.fs, c.Path(b, key))
	return err == nil && exists
}

// Keys lists the stored keys of backend b in sorted order.
func (c *Cache) Keys(b backend.Backend) ([]Key, error) {
	infos, err := afero.ReadDir(c.fs, c.Dir(b))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, errors.IO(b.String(), "list entries", err)
	}

	var keys []Key
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if key, err := ParseKey(name); err == nil {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Remove deletes the entry for key under backend b. Eviction policy is left
// to the caller.
func (c *Cache) Remove(b backend.Backend, key Key) error {
	if _, err := ParseKey(key.String()); err != nil {
		return err
	}
	if err := c.fs.Remove(c.Path(b, key)); err != nil {
		if isNotExist(err) {
			return errors.CacheMiss(b.String(), key.String())
		}
		return errors.IO(b.String(), "remove entry", err)
	}
	Logger().Debug("artifact removed", zap.String("backend", b.String()), zap.String("key", key.String()))
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
