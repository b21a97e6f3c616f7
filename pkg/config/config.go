// Package config loads the flowmap TOML configuration file.
//
// The file mirrors the inputs of a layout (display toggles, focus, boundary
// requests) plus the settings of the outer layers (cache backend, HTTP
// server). Every key is optional; missing keys keep the values of [Default].
//
//	[display]
//	show_host = true
//	aggregate_many_ingress = false
//
//	[layout]
//	visibility = "hidden"
//	boundaries = [{ kind = "app", title = "shop" }]
//
//	[cache]
//	backend = "redis"
//	ttl = "12h"
//	[cache.redis]
//	url = "redis://cache:6379/0"
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowmap/pkg/cache"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/layout"
)

// AppName names the config and cache directories.
const AppName = "flowmap"

// Config is the full configuration file.
type Config struct {
	Display layout.DisplayFilters `toml:"display"`
	Focus   layout.FocusFilter    `toml:"focus"`
	Layout  LayoutConfig          `toml:"layout"`
	Cache   CacheConfig           `toml:"cache"`
	Server  ServerConfig          `toml:"server"`
}

// LayoutConfig holds the layout options besides display and focus.
type LayoutConfig struct {
	// Visibility applies to nodes outside the focus: "fogged" or "hidden".
	Visibility       string                   `toml:"visibility"`
	Boundaries       []layout.BoundaryRequest `toml:"boundaries"`
	TooManyFunctions int                      `toml:"too_many_functions"`
}

// CacheConfig selects the memoization backend.
type CacheConfig struct {
	// Backend is one of file, redis, mongo or none.
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	Prefix  string        `toml:"prefix"`
	TTL     time.Duration `toml:"ttl"`
	Redis   RedisConfig   `toml:"redis"`
	Mongo   MongoConfig   `toml:"mongo"`
}

type RedisConfig struct {
	URL string `toml:"url"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `flowmap serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	// MaxBodyBytes limits the size of a layout request body.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
	// RequestTimeout bounds a single layout request.
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Display: layout.DefaultDisplayFilters(),
		Layout: LayoutConfig{
			Visibility:       string(layout.Fogged),
			TooManyFunctions: 5,
		},
		Cache: CacheConfig{
			Backend: string(cache.BackendFile),
			TTL:     cache.LayoutTTL,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxBodyBytes:   16 << 20,
			RequestTimeout: 20 * time.Second,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/flowmap/config.toml, falling back to
// ~/.config.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns $XDG_CACHE_HOME/flowmap, falling back to ~/.cache.
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads the file at path on top of [Default] and validates it. An
// empty path loads the default location, where a missing file is not an
// error; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return finish(Default())
		}
		path = p
	}
	if err := ferrors.ValidatePath(path); err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if explicit {
			return Config{}, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return finish(Default())
	}
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML on top of [Default] and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	if cfg.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the focus, the boundary requests and the enumerations.
func (c *Config) Validate() error {
	if err := ferrors.ValidateFocus(c.Focus.Self, c.Focus.From, c.Focus.To); err != nil {
		return err
	}
	kinds := make([]string, len(c.Layout.Boundaries))
	for i, b := range c.Layout.Boundaries {
		kinds[i] = string(b.Kind)
	}
	if err := ferrors.ValidateBoundaryKinds(kinds); err != nil {
		return err
	}
	switch layout.Visibility(c.Layout.Visibility) {
	case "", layout.Fogged, layout.Hidden:
	default:
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "layout.visibility must be fogged or hidden, got %q", c.Layout.Visibility)
	}
	if c.Layout.TooManyFunctions < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "layout.too_many_functions must not be negative")
	}
	switch cache.Backend(c.Cache.Backend) {
	case "", cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone:
	default:
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// LayoutOptions converts the layout sections into engine options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Focus:            c.Focus,
		FocusVisibility:  layout.Visibility(c.Layout.Visibility),
		Display:          c.Display,
		Boundaries:       c.Layout.Boundaries,
		TooManyFunctions: c.Layout.TooManyFunctions,
	}
}

// CacheOptions converts the cache section into [cache.Open] options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: cache.Backend(c.Cache.Backend),
		Dir:     c.Cache.Dir,
		Redis:   cache.RedisOptions{URL: c.Cache.Redis.URL},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		},
	}
}

// Write encodes the configuration as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
