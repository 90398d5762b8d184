package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshtower/internal/server"
	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/observability/prom"
)

type serveOpts struct {
	source   sourceFlags
	addr     string
	refresh  bool
	foldCase bool
	noCache  bool
	metrics  bool
}

func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{metrics: true}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live topology view over HTTP",
		Long: `Serve the topology page at / along with /graph.svg, /graph.dot,
/api/graph, /api/topology, /healthz and /metrics.

Every request fetches a fresh snapshot unless one is still cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from serve.addr)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "never serve a cached snapshot")
	cmd.Flags().BoolVar(&opts.foldCase, "fold-case", false, "compare addresses case-insensitively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose Prometheus metrics at /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg := c.config()
	addr := opts.addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	if opts.source.input == "-" {
		return errs.New(errs.ErrCodeInvalidInput, "serve cannot read standard input; pass a file or --url")
	}
	fetcher, cacheable, err := c.newFetcher(opts.source)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, fetcher, cacheable, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.RenderOptions = server.PageOptions(runner.RenderOptions)

	var metrics *prom.Registry
	if opts.metrics {
		metrics = prom.NewRegistry()
		metrics.Install()
	}

	srv := server.New(runner, metrics, c.Logger, server.Options{
		Refresh:  opts.refresh || cfg.Serve.Refresh,
		FoldCase: opts.foldCase || cfg.Render.FoldCase,
	})

	printSuccess("Serving %s", fetcher.Source())
	printKeyValue("URL", StyleLink.Render("http://"+displayAddr(addr)+"/"))
	return srv.ListenAndServe(ctx, addr)
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
