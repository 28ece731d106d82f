// Package config loads harness settings from defaults, an optional YAML file
// and WASMBENCH_* environment variables, in that order of precedence.
package config

import (
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/errors"
	"github.com/wippyai/wasm-bench/runtime"
)

// EnvPrefix prefixes every environment variable, e.g. WASMBENCH_CACHE_DIR.
const EnvPrefix = "WASMBENCH"

// Config is the harness configuration.
type Config struct {
	CacheDir         string   `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	Entry            string   `yaml:"entry" envconfig:"ENTRY"`
	LogLevel         string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Backends         []string `yaml:"backends" envconfig:"BACKENDS"`
	MemoryLimitPages uint32   `yaml:"memory_limit_pages" envconfig:"MEMORY_LIMIT_PAGES"`
	NativeCache      bool     `yaml:"native_cache" envconfig:"NATIVE_CACHE"`
	SourceIndex      bool     `yaml:"source_index" envconfig:"SOURCE_INDEX"`
}

// Default returns the built-in configuration. Backends is empty, meaning
// every backend available in the binary.
func Default() Config {
	return Config{
		CacheDir:         "./tmp",
		Entry:            runtime.DefaultEntry,
		LogLevel:         "warn",
		MemoryLimitPages: 128,
		NativeCache:      true,
	}
}

// Load builds the configuration. path may be empty to skip the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.New(errors.PhaseConfig, errors.KindIO).
				Detail("read config %s", path).
				Cause(err).
				Build()
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Detail("parse config %s", path).
				Cause(err).
				Build()
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("environment").
			Cause(err).
			Build()
	}

	return cfg, cfg.Validate()
}

// Validate checks every field that can be checked without starting an engine.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CacheDir) == "" {
		return errors.InvalidInput(errors.PhaseConfig, "cache_dir is empty")
	}
	if _, err := c.ParseBackends(); err != nil {
		return err
	}
	if _, err := runtime.ParseEntry(c.Entry); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MemoryLimitPages > 65536 {
		return errors.InvalidInput(errors.PhaseConfig, "memory_limit_pages exceeds 65536 (4 GiB)")
	}
	return nil
}

// ParseBackends resolves the configured backend names. An empty list
// selects every known backend.
func (c Config) ParseBackends() ([]backend.Backend, error) {
	if len(c.Backends) == 0 {
		return backend.All(), nil
	}
	out := make([]backend.Backend, 0, len(c.Backends))
	for _, name := range c.Backends {
		b, err := backend.Parse(name)
		if err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Detail("backends").
				Cause(err).
				Build()
		}
		out = append(out, b)
	}
	return out, nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("log_level").
			Cause(err).
			Build()
	}
	return lvl, nil
}

// Runtime converts the configuration for runtime.New.
func (c Config) Runtime() runtime.Config {
	return runtime.Config{
		CacheDir:         c.CacheDir,
		Entry:            c.Entry,
		MemoryLimitPages: c.MemoryLimitPages,
		NativeCache:      c.NativeCache,
		SourceIndex:      c.SourceIndex,
	}
}
