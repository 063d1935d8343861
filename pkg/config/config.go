// Package config loads chartpad settings from TOML.
//
// Search order, first hit wins:
//
//  1. the path given with --config
//  2. $XDG_CONFIG_HOME/chartpad/config.toml
//  3. ~/.config/chartpad/config.toml
//  4. built-in defaults
//
// A missing file in steps 2 and 3 is not an error. Values left out of a
// file keep their defaults. Command-line flags override file values; that
// merge happens in the CLI.
//
// Example:
//
//	[chart]
//	type = "bar"
//	bins = 12
//	palette = ["#1b9e77", "#d95f02", "#7570b3"]
//
//	[store]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "72h"
//
//	[cache]
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// AppName is used for config, cache and session directories.
const AppName = "chartpad"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Duration is a time.Duration that decodes from TOML strings like "24h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full settings tree.
type Config struct {
	Chart  ChartConfig  `toml:"chart"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Source SourceConfig `toml:"source"`
}

// ChartConfig holds defaults for new sessions.
type ChartConfig struct {
	Type    string   `toml:"type"`
	Bins    int      `toml:"bins"`
	Palette []string `toml:"palette"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Backend    string   `toml:"backend"`
	Dir        string   `toml:"dir"`
	RedisURL   string   `toml:"redis_url"`
	MongoURI   string   `toml:"mongo_uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	TTL        Duration `toml:"ttl"`
}

// CacheConfig configures the dataset cache.
type CacheConfig struct {
	Disabled bool     `toml:"disabled"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// ServerConfig configures `chartpad serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

// SourceConfig configures dataset sources.
type SourceConfig struct {
	PostgresDSN string   `toml:"postgres_dsn"`
	Timeout     Duration `toml:"timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Chart: ChartConfig{
			Type:    string(mapping.Line),
			Bins:    mapping.DefaultBins,
			Palette: append([]string(nil), chart.DefaultPalette...),
		},
		Store: StoreConfig{
			Backend:    BackendFile,
			Database:   AppName,
			Collection: "sessions",
			TTL:        Duration{7 * 24 * time.Hour},
		},
		Cache: CacheConfig{
			Prefix: AppName + ":",
			TTL:    Duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			MaxBodyBytes: 8 << 20,
		},
		Source: SourceConfig{
			Timeout: Duration{30 * time.Second},
		},
	}
}

// Load reads the config at path, or searches the default locations when
// path is empty. It returns the config and the file it came from ("" for
// defaults only).
func Load(path string) (Config, string, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, "", err
		}
		return cfg, path, cfg.Validate()
	}
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := decodeFile(p, &cfg); err != nil {
			return cfg, "", err
		}
		return cfg, p, cfg.Validate()
	}
	return cfg, "", nil
}

// Parse decodes TOML text on top of the defaults.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := checkUndecoded(md); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", keys[0].String())
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if _, ok := mapping.ParseChartType(c.Chart.Type); !ok {
		return errors.New(errors.ErrCodeInvalidChartType, "unknown chart type %q", c.Chart.Type)
	}
	if c.Chart.Bins < mapping.MinBins || c.Chart.Bins > mapping.MaxBins {
		return errors.New(errors.ErrCodeInvalidConfig, "chart.bins must be between %d and %d", mapping.MinBins, mapping.MaxBins)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.redis_url is required for the redis backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// SearchPaths returns the default config file locations in search order.
func SearchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, AppName, "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", AppName, "config.toml"))
	}
	return paths
}

// Dir returns ~/.config/chartpad, or a temp-dir fallback when the home
// directory is unknown.
func Dir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

// SessionDir returns the file store directory, honoring store.dir.
func (c Config) SessionDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	return filepath.Join(Dir(), "sessions")
}

// CacheDir returns the file cache directory, honoring cache.dir.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(os.TempDir(), AppName, "cache")
}

// Encode writes c as TOML, used by `chartpad config show`.
func (c Config) Encode() (string, error) {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}
