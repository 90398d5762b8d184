package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshtower/internal/config"
	"github.com/matzehuels/meshtower/pkg/archive"
	"github.com/matzehuels/meshtower/pkg/buildinfo"
	"github.com/matzehuels/meshtower/pkg/cache"
	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/fetch"
	"github.com/matzehuels/meshtower/pkg/integrations"
	"github.com/matzehuels/meshtower/pkg/integrations/ubus"
	"github.com/matzehuels/meshtower/pkg/pipeline"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "meshtower"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The configuration file is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Meshtower draws EasyMesh network topologies",
		Long: `Meshtower fetches the IEEE 1905.1 topology from an EasyMesh controller
through ubus and draws it as an interactive page, an SVG or PNG diagram,
or a JSON/DOT graph.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/meshtower/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.archiveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or the defaults when commands
// are driven without the root command.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Source & Runner Factory
// =============================================================================

// sourceFlags selects where a topology comes from.
type sourceFlags struct {
	input    string // snapshot file, "-" for stdin
	url      string // rpcd endpoint; overrides ubus.url
	insecure bool
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.input, "input", "i", "", "read a get_topology JSON dump instead of calling the router (- for stdin)")
	s.registerRouter(cmd)
}

// registerRouter adds only the router flags, for commands that never read
// a snapshot file.
func (s *sourceFlags) registerRouter(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.url, "url", "", "ubus endpoint, e.g. http://192.168.1.1/ubus")
	cmd.Flags().BoolVar(&s.insecure, "insecure", false, "skip TLS certificate verification")
}

// newFetcher builds the fetcher for src. Snapshot files are read directly;
// router fetches go through the snapshot cache.
func (c *CLI) newFetcher(src sourceFlags) (f fetch.Fetcher, cacheable bool, err error) {
	if src.input != "" {
		if src.url != "" {
			return nil, false, errs.New(errs.ErrCodeInvalidInput, "--input and --url are mutually exclusive")
		}
		return fetch.FileFetcher{Path: src.input}, false, nil
	}
	client, err := c.newUbusClient(src)
	if err != nil {
		return nil, false, err
	}
	return fetch.NewUbusFetcher(client, c.Logger), true, nil
}

// newUbusClient creates a client whose sessions persist in the CLI
// session store.
func (c *CLI) newUbusClient(src sourceFlags) (*ubus.Client, error) {
	cfg := c.config().Ubus
	url := src.url
	if url == "" {
		url = cfg.URL
	}
	if url == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput,
			"no topology source: pass --input or --url, or set ubus.url (%s)", config.EnvUbusURL)
	}

	store, err := session.NewFileStore("")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return ubus.NewClient(ubus.Config{
		URL:      url,
		Username: cfg.Username,
		Password: cfg.Password,
		HTTP: integrations.HTTPOptions{
			Timeout:  cfg.Timeout,
			Insecure: cfg.Insecure || src.insecure,
		},
	}, store, c.Logger)
}

// newRunner creates a pipeline runner for CLI use. fetcher may be nil for
// re-rendering archived snapshots.
func (c *CLI) newRunner(ctx context.Context, fetcher fetch.Fetcher, cacheable, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	if fetcher != nil && cacheable {
		fetcher = fetch.NewCachingFetcher(fetcher, cc, nil, c.config().Cache.TTL, c.Logger)
	}
	runner := pipeline.NewRunner(fetcher, cc, nil, c.Logger)
	runner.RenderOptions = c.renderOptions()
	return runner, nil
}

func (c *CLI) renderOptions() render.Options {
	cfg := c.config().Render
	opts := render.DefaultOptions()
	opts.VisJS.ScriptPath = cfg.VisScript
	if cfg.Layout != "" {
		opts.NodeLink.Layout = cfg.Layout
	}
	return opts
}

// newCache opens the configured cache backend. A file cache that cannot
// locate its directory degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config().Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		dir, err := c.resolveCacheDir()
		if err != nil {
			c.Logger.Debug("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// openArchive connects to the configured snapshot archive.
func (c *CLI) openArchive(ctx context.Context) (archive.Store, error) {
	cfg := c.config().Archive
	if !cfg.Enabled() {
		return nil, errs.New(errs.ErrCodeInvalidConfig,
			"no archive configured: set archive.mongo_uri or %s", config.EnvMongoURI)
	}
	store, err := archive.NewMongoStore(ctx, archive.MongoOptions{
		URI:        cfg.MongoURI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// =============================================================================
// Paths
// =============================================================================

// resolveCacheDir returns cache.dir from the configuration, or the XDG default.
func (c *CLI) resolveCacheDir() (string, error) {
	if dir := c.config().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/meshtower/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats splits a comma-separated format list, lower-casing and
// trimming each entry. An empty flag falls back to defaults.
func parseFormats(s string, defaults []string) []string {
	if strings.TrimSpace(s) == "" {
		return append([]string(nil), defaults...)
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
