// Package server serves the live topology view over HTTP.
//
// Every request runs a fetch-and-render cycle through a shared
// [pipeline.Runner], so the page always reflects the router's current
// state, subject to the snapshot cache TTL.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/meshtower/pkg/observability/prom"
	"github.com/matzehuels/meshtower/pkg/pipeline"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/render/visjs"
)

// Options configures the pipeline run behind each request.
type Options struct {
	// Refresh bypasses the snapshot cache on every request.
	Refresh  bool
	FoldCase bool
}

// Server handles the HTTP view.
type Server struct {
	runner  *pipeline.Runner
	metrics *prom.Registry
	logger  *log.Logger
	opts    Options
}

// New creates a server. metrics may be nil, in which case /metrics is not
// mounted.
func New(runner *pipeline.Runner, metrics *prom.Registry, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, metrics: metrics, logger: logger, opts: opts}
}

// PageOptions returns o with the page's node images referenced through the
// /img/ route rather than inlined as data URIs.
func PageOptions(o render.Options) render.Options {
	o.VisJS.InlineImages = false
	return o
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.artifact(render.FormatHTML))
	r.Get("/graph.svg", s.artifact(render.FormatSVG))
	r.Get("/graph.dot", s.artifact(render.FormatDOT))
	r.Get("/api/graph", s.artifact(render.FormatJSON))
	r.Get("/api/topology", s.topology)
	r.Get("/healthz", healthz)
	r.Handle("/img/*", http.FileServerFS(visjs.Images()))
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving topology", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
