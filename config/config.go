// Package config loads the engine configuration: logging, provider mounts,
// shader macros, wasm limits and identifiers to preload.
//
// Files are JSON with comments and trailing commas. Values not present in
// the file keep their defaults.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/ident"
)

// Provider kinds.
const (
	KindDir     = "dir"
	KindArchive = "archive"
)

// MaxMemoryPages is the wasm32 address space limit in 64KiB pages.
const MaxMemoryPages = 65536

// Config is the full engine configuration.
type Config struct {
	Macros    map[string]any `json:"macros,omitempty"`
	Log       Log            `json:"log"`
	Providers []Provider     `json:"providers,omitempty"`
	Preload   []string       `json:"preload,omitempty"`
	Wasm      Wasm           `json:"wasm"`
}

// Log configures the engine logger.
type Log struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // console or json
}

// Provider mounts one provider. Later entries with the same name shadow
// earlier ones.
type Provider struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Wasm configures the wazero runtime.
type Wasm struct {
	MemoryLimitPages uint32 `json:"memory_limit_pages"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:  Log{Level: "info", Format: "console"},
		Wasm: Wasm{MemoryLimitPages: 256},
	}
}

// Parse decodes data over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, errors.Config("", fmt.Errorf("invalid JSONC: %w", err))
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Config("", fmt.Errorf("invalid JSON: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses path. Relative provider paths are resolved against
// the directory holding the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Config(path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) && e.ID == "" {
			e.ID = path
		}
		return Config{}, err
	}

	base := filepath.Dir(path)
	for i := range cfg.Providers {
		if !filepath.IsAbs(cfg.Providers[i].Path) {
			cfg.Providers[i].Path = filepath.Join(base, cfg.Providers[i].Path)
		}
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return invalid("log.format %q must be console or json", c.Log.Format)
	}

	for i, p := range c.Providers {
		if p.Name == "" {
			return invalid("providers[%d]: name is required", i)
		}
		switch p.Kind {
		case KindDir, KindArchive:
		default:
			return invalid("providers[%d] %q: unknown kind %q", i, p.Name, p.Kind)
		}
		if p.Path == "" {
			return invalid("providers[%d] %q: path is required", i, p.Name)
		}
	}

	for i, text := range c.Preload {
		if _, err := ident.Parse(text); err != nil {
			return invalid("preload[%d]: %v", i, err)
		}
	}

	if c.Wasm.MemoryLimitPages == 0 || c.Wasm.MemoryLimitPages > MaxMemoryPages {
		return invalid("wasm.memory_limit_pages must be between 1 and %d", MaxMemoryPages)
	}
	return nil
}

// PreloadIDs returns the preload list as identifiers. Call after Validate.
func (c Config) PreloadIDs() []ident.ID {
	ids := make([]ident.ID, 0, len(c.Preload))
	for _, text := range c.Preload {
		if id, err := ident.Parse(text); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func invalid(format string, args ...any) error {
	return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf(format, args...))
}
