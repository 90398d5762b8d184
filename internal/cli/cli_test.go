package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/meshtower/internal/config"
)

func TestResolveCacheDir(t *testing.T) {
	t.Run("configured dir wins", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", t.TempDir())
		c := newTestCLI(t)
		c.cfg.Cache.Dir = "/srv/meshtower/cache"

		dir, err := c.resolveCacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if dir != "/srv/meshtower/cache" {
			t.Errorf("resolveCacheDir() = %q, want cache.dir", dir)
		}
	})

	t.Run("XDG_CACHE_HOME", func(t *testing.T) {
		xdg := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", xdg)
		c := newTestCLI(t)

		dir, err := c.resolveCacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(xdg, "meshtower"); dir != want {
			t.Errorf("resolveCacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", "")
		t.Setenv("HOME", home)
		c := newTestCLI(t)

		dir, err := c.resolveCacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(home, ".cache", "meshtower"); dir != want {
			t.Errorf("resolveCacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestCachePath(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*config.Config)
		want string
	}{
		{"file", func(c *config.Config) { c.Cache.Backend = config.BackendFile; c.Cache.Dir = "/var/cache/mesh" }, "/var/cache/mesh"},
		{"redis", func(c *config.Config) { c.Cache.Backend = config.BackendRedis; c.Cache.RedisAddr = "cache:6379" }, "redis://cache:6379"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(t)
			c := newTestCLI(t)
			tt.cfg(c.cfg)

			cmd := c.cachePathCommand()
			cmd.SetContext(context.Background())
			if err := cmd.RunE(cmd, nil); err != nil {
				t.Fatal(err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("cache path = %q, want %q", got, tt.want)
			}
		})
	}
}
