package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/pipeline"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// artifact serves one rendered format of the current topology.
func (s *Server) artifact(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.runner.Execute(r.Context(), pipeline.Options{
			Formats:  []string{format},
			FoldCase: s.opts.FoldCase,
			Refresh:  s.refresh(r),
		})
		if err != nil {
			s.fail(w, r, err)
			return
		}

		w.Header().Set("Content-Type", render.ContentType(format))
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Meshtower-Nodes", strconv.Itoa(result.Stats.NodeCount))
		w.Header().Set("X-Meshtower-Edges", strconv.Itoa(result.Stats.EdgeCount))
		_, _ = w.Write(result.Artifacts[format])
	}
}

// topology serves the raw snapshot as fetched.
func (s *Server) topology(w http.ResponseWriter, r *http.Request) {
	snap, _, err := s.runner.FetchWithCacheInfo(r.Context(), s.refresh(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := topology.WriteJSON(snap, w); err != nil {
		s.logger.Warn("write snapshot", "error", err)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// refresh reports whether the snapshot cache should be bypassed, either
// server-wide or with ?refresh=1.
func (s *Server) refresh(r *http.Request) bool {
	if s.opts.Refresh {
		return true
	}
	v, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return v
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logger.Error("request failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"error", err)
	http.Error(w, errs.UserMessage(err), status)
}

// statusFor maps an error code to an HTTP status. Router-side failures are
// reported as gateway errors.
func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidAddress:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeFetchFailed, errs.ErrCodeNetwork, errs.ErrCodeRPC, errs.ErrCodeUnauthorized:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// logRequests logs each request to the charm logger and records it in the
// metrics registry under its route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		d := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		s.logger.Debug("http",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()))
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, route, status, d)
		}
	})
}
