package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowmap/pkg/cache"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/layout"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Display != layout.DefaultDisplayFilters() {
		t.Errorf("Display = %+v, want defaults", cfg.Display)
	}
	if cfg.Layout.Visibility != "fogged" {
		t.Errorf("Visibility = %q, want fogged", cfg.Layout.Visibility)
	}
	if cfg.Cache.Backend != "file" || cfg.Cache.TTL != cache.LayoutTTL {
		t.Errorf("Cache = %+v, want file backend with layout ttl", cfg.Cache)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	data := []byte(`
[display]
show_host = true
aggregate_many_ingress = false

[focus]
self = "api"

[layout]
visibility = "hidden"
too_many_functions = 8
boundaries = [
  { kind = "namespace", title = "shop" },
  { kind = "app", title = "store" },
]

[cache]
backend = "redis"
ttl = "2h"
prefix = "staging:"

[cache.redis]
url = "redis://cache:6379/1"

[server]
addr = "127.0.0.1:9000"
read_timeout = "5s"
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if !cfg.Display.ShowHost || cfg.Display.AggregateManyIngress {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if !cfg.Display.ShowIngress {
		t.Error("unset display key lost its default")
	}
	if cfg.Focus.Self != "api" {
		t.Errorf("Focus.Self = %q, want api", cfg.Focus.Self)
	}
	if len(cfg.Layout.Boundaries) != 2 || cfg.Layout.Boundaries[1].Kind != layout.BoundaryApp {
		t.Errorf("Boundaries = %+v", cfg.Layout.Boundaries)
	}
	if cfg.Cache.TTL != 2*time.Hour || cfg.Cache.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Dir != filepath.Join("/tmp/xdg-cache", AppName) {
		t.Errorf("Cache.Dir = %q, want XDG cache dir", cfg.Cache.Dir)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want default", cfg.Server.WriteTimeout)
	}

	opts := cfg.LayoutOptions()
	if opts.FocusVisibility != layout.Hidden || opts.TooManyFunctions != 8 || opts.Focus.Self != "api" {
		t.Errorf("LayoutOptions() = %+v", opts)
	}
	co := cfg.CacheOptions()
	if co.Backend != cache.BackendRedis || co.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("CacheOptions() = %+v", co)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code ferrors.Code
	}{
		{"syntax", "[display\n", ferrors.ErrCodeInvalidConfig},
		{"unknown key", "[display]\nshow_everything = true\n", ferrors.ErrCodeInvalidConfig},
		{"bad visibility", "[layout]\nvisibility = \"blurred\"\n", ferrors.ErrCodeInvalidConfig},
		{"negative threshold", "[layout]\ntoo_many_functions = -1\n", ferrors.ErrCodeInvalidConfig},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", ferrors.ErrCodeInvalidConfig},
		{"self with from", "[focus]\nself = \"a\"\nfrom = \"b\"\n", ferrors.ErrCodeInvalidFilter},
		{"two apps", "[layout]\nboundaries = [{kind = \"app\"}, {kind = \"app\"}]\n", ferrors.ErrCodeInvalidBoundary},
		{"bad boundary kind", "[layout]\nboundaries = [{kind = \"team\"}]\n", ferrors.ErrCodeInvalidBoundary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !ferrors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") without file error: %v", err)
	}
	if cfg.Layout.TooManyFunctions != 5 {
		t.Errorf("TooManyFunctions = %d, want default 5", cfg.Layout.TooManyFunctions)
	}

	path := filepath.Join(dir, AppName, "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[layout]\ntoo_many_functions = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Layout.TooManyFunctions != 3 {
		t.Errorf("TooManyFunctions = %d, want 3", cfg.Layout.TooManyFunctions)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !ferrors.Is(err, ferrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Focus.From = "web"
	cfg.Layout.Boundaries = []layout.BoundaryRequest{{Kind: layout.BoundaryNamespace, Title: "shop"}}

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse(Write()) error: %v\n%s", err, buf.String())
	}
	if got.Focus != cfg.Focus || got.Cache.TTL != cfg.Cache.TTL || len(got.Layout.Boundaries) != 1 {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}
