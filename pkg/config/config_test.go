package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/chartpad/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[chart]
type = "histogram"
bins = 20

[store]
backend = "redis"
redis_url = "redis://localhost:6379/0"
ttl = "72h"
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chart.Type != "histogram" || cfg.Chart.Bins != 20 {
		t.Errorf("chart = %+v", cfg.Chart)
	}
	if cfg.Store.TTL.Duration != 72*time.Hour {
		t.Errorf("ttl = %v", cfg.Store.TTL)
	}
	// Untouched sections keep defaults.
	if cfg.Server.Addr != ":8080" || len(cfg.Chart.Palette) == 0 {
		t.Errorf("defaults lost: %+v", cfg.Server)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"syntax", "[chart\n", errors.ErrCodeInvalidConfig},
		{"unknown key", "[chart]\ncolour = 1\n", errors.ErrCodeInvalidConfig},
		{"bad chart type", "[chart]\ntype = \"gantt\"\n", errors.ErrCodeInvalidChartType},
		{"bins range", "[chart]\nbins = 0\n", errors.ErrCodeInvalidConfig},
		{"unknown backend", "[store]\nbackend = \"sqlite\"\n", errors.ErrCodeInvalidConfig},
		{"redis without url", "[store]\nbackend = \"redis\"\n", errors.ErrCodeInvalidConfig},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n", errors.ErrCodeInvalidConfig},
		{"bad duration", "[cache]\nttl = \"soon\"\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	cfg, from, err := Load("")
	if err != nil || from != "" {
		t.Fatalf("Load without files = %q, %v", from, err)
	}
	if cfg.Chart.Type != "line" {
		t.Errorf("type = %q", cfg.Chart.Type)
	}

	path := filepath.Join(xdg, AppName, "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[chart]\ntype = \"pie\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, from, err = Load("")
	if err != nil || from != path || cfg.Chart.Type != "pie" {
		t.Errorf("Load = %+v, %q, %v", cfg.Chart, from, err)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	out, err := Default().Encode()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Encode()) = %v\n%s", err, out)
	}
	if cfg.Store.TTL != Default().Store.TTL {
		t.Errorf("ttl = %v", cfg.Store.TTL)
	}
}

func TestDirs(t *testing.T) {
	cfg := Default()
	cfg.Store.Dir = "/tmp/s"
	cfg.Cache.Dir = "/tmp/c"
	if cfg.SessionDir() != "/tmp/s" || cfg.CacheDir() != "/tmp/c" {
		t.Error("explicit dirs ignored")
	}
}
