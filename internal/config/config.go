// Package config loads meshtower's TOML configuration file.
//
// Values are layered: built-in defaults, then the file, then MESHTOWER_*
// environment variables. Command-line flags are applied on top by the CLI.
//
//	[ubus]
//	url      = "http://192.168.1.1/ubus"
//	username = "root"
//	password = "secret"
//	timeout  = "10s"
//
//	[cache]
//	backend    = "redis"
//	redis_addr = "localhost:6379"
//
//	[render]
//	formats   = ["html", "svg"]
//	fold_case = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/meshtower/pkg/errors"
)

const appName = "meshtower"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Environment variables that override file values.
const (
	EnvUbusURL      = "MESHTOWER_UBUS_URL"
	EnvUbusUsername = "MESHTOWER_UBUS_USERNAME"
	EnvUbusPassword = "MESHTOWER_UBUS_PASSWORD"
	EnvRedisAddr    = "MESHTOWER_REDIS_ADDR"
	EnvMongoURI     = "MESHTOWER_MONGO_URI"
)

// Config is the full configuration.
type Config struct {
	Ubus    UbusConfig    `toml:"ubus"`
	Cache   CacheConfig   `toml:"cache"`
	Archive ArchiveConfig `toml:"archive"`
	Serve   ServeConfig   `toml:"serve"`
	Render  RenderConfig  `toml:"render"`
}

// UbusConfig locates the router's rpcd endpoint.
type UbusConfig struct {
	URL      string        `toml:"url" validate:"omitempty,endpoint"`
	Username string        `toml:"username" validate:"max=64"`
	Password string        `toml:"password"`
	Timeout  time.Duration `toml:"timeout" validate:"gte=0"`
	Insecure bool          `toml:"insecure"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend" validate:"oneof=file redis none"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl" validate:"gte=0"`
	RedisAddr     string        `toml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db" validate:"gte=0,lte=15"`
}

// ArchiveConfig enables the MongoDB snapshot archive when MongoURI is set.
type ArchiveConfig struct {
	MongoURI   string `toml:"mongo_uri" validate:"omitempty,startswith=mongodb"`
	Database   string `toml:"database" validate:"omitempty,max=64"`
	Collection string `toml:"collection" validate:"omitempty,max=120"`
}

// Enabled reports whether an archive is configured.
func (a ArchiveConfig) Enabled() bool { return a.MongoURI != "" }

// ServeConfig configures `meshtower serve`.
type ServeConfig struct {
	Addr string `toml:"addr" validate:"hostname_port"`
	// Refresh bypasses the snapshot cache on every request.
	Refresh bool `toml:"refresh"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Formats   []string `toml:"formats" validate:"dive,oneof=html svg png json dot"`
	FoldCase  bool     `toml:"fold_case"`
	VisScript string   `toml:"vis_script"`
	Layout    string   `toml:"layout" validate:"omitempty,oneof=neato fdp sfdp circo dot"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Ubus:  UbusConfig{Timeout: 10 * time.Second},
		Cache: CacheConfig{Backend: BackendFile},
		Serve: ServeConfig{Addr: "127.0.0.1:8080"},
		Render: RenderConfig{
			Formats: []string{"html"},
			Layout:  "neato",
		},
	}
}

// DefaultPath returns ~/.config/meshtower/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration. An empty path reads the default location,
// which may be absent; an explicit path must exist. Environment overrides
// are applied and the result is validated.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("locate config: %w", err)
		}
		path = p
	}

	if err := cfg.decodeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv(lookup)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Ubus.URL, EnvUbusURL)
	set(&c.Ubus.Username, EnvUbusUsername)
	set(&c.Ubus.Password, EnvUbusPassword)
	set(&c.Cache.RedisAddr, EnvRedisAddr)
	set(&c.Archive.MongoURI, EnvMongoURI)
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_addr: required when cache.backend is redis")
	}
	if slices.Contains(c.Render.Formats, "") {
		return errs.New(errs.ErrCodeInvalidConfig, "render.formats: empty format name")
	}
	return nil
}

// Write encodes c as TOML to path, creating parent directories. The file is
// private because it may hold the router password.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
