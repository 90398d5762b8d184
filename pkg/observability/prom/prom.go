// Package prom implements the observability hooks on Prometheus collectors.
//
//	reg := prom.NewRegistry()
//	reg.Install()                       // route hooks to the collectors
//	http.Handle("/metrics", reg.Handler())
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/meshtower/pkg/observability"
)

const namespace = "meshtower"

// Registry holds the meshtower collectors.
type Registry struct {
	// Fetch
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	Devices       prometheus.Gauge

	// Build
	GraphNodes      prometheus.Gauge
	GraphEdges      prometheus.Gauge
	DroppedLinks    prometheus.Gauge
	OwnerCollisions prometheus.Gauge
	BuildDuration   prometheus.Histogram

	// Render
	RendersTotal   *prometheus.CounterVec
	RenderDuration prometheus.Histogram

	// Cache
	CacheRequestsTotal *prometheus.CounterVec
	CacheBytesWritten  *prometheus.CounterVec

	// Outgoing HTTP (ubus)
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec

	// Incoming HTTP (serve)
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every collector registered, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Registry{
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetches_total",
			Help: "Topology fetches by result",
		}, []string{"result"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "fetch_duration_seconds",
			Help:    "Topology fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		Devices: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "devices",
			Help: "Devices in the last fetched snapshot",
		}),

		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_nodes",
			Help: "Nodes in the last built graph",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_edges",
			Help: "Edges in the last built graph",
		}),
		DroppedLinks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_dropped_links",
			Help: "Aggregated links without an owner at one end in the last build",
		}),
		OwnerCollisions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "graph_owner_collisions",
			Help: "Interface addresses declared by more than one device in the last build",
		}),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "build_duration_seconds",
			Help:    "Graph build latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		RendersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "renders_total",
			Help: "Render passes by format and result",
		}, []string{"format", "result"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "render_duration_seconds",
			Help:    "Render pass latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		CacheRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_requests_total",
			Help: "Cache lookups by entry kind and outcome",
		}, []string{"kind", "outcome"}),
		CacheBytesWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache by entry kind",
		}, []string{"kind"}),

		UpstreamRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "upstream_requests_total",
			Help: "Requests to routers by host and status",
		}, []string{"host", "status"}),
		UpstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "upstream_request_duration_seconds",
			Help:    "Router request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests served by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		registry: reg,
	}
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Install registers r as the global pipeline, cache and HTTP hooks.
func (r *Registry) Install() {
	observability.SetPipelineHooks(pipelineHooks{r})
	observability.SetCacheHooks(cacheHooks{r})
	observability.SetHTTPHooks(httpHooks{r})
}

// RecordHTTPRequest records one served request.
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type pipelineHooks struct{ r *Registry }

func (h pipelineHooks) OnFetchStart(context.Context, string) {}

func (h pipelineHooks) OnFetchComplete(_ context.Context, _ string, devices int, d time.Duration, err error) {
	h.r.FetchesTotal.WithLabelValues(result(err)).Inc()
	h.r.FetchDuration.Observe(d.Seconds())
	if err == nil {
		h.r.Devices.Set(float64(devices))
	}
}

func (h pipelineHooks) OnBuildComplete(_ context.Context, b observability.BuildInfo, d time.Duration) {
	h.r.GraphNodes.Set(float64(b.Nodes))
	h.r.GraphEdges.Set(float64(b.Edges))
	h.r.DroppedLinks.Set(float64(b.DroppedLinks))
	h.r.OwnerCollisions.Set(float64(b.OwnerCollisions))
	h.r.BuildDuration.Observe(d.Seconds())
}

func (h pipelineHooks) OnRenderStart(context.Context, []string) {}

func (h pipelineHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		h.r.RendersTotal.WithLabelValues(f, result(err)).Inc()
	}
	h.r.RenderDuration.Observe(d.Seconds())
}

type cacheHooks struct{ r *Registry }

func (h cacheHooks) OnCacheHit(_ context.Context, kind string) {
	h.r.CacheRequestsTotal.WithLabelValues(kind, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, kind string) {
	h.r.CacheRequestsTotal.WithLabelValues(kind, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.r.CacheBytesWritten.WithLabelValues(kind).Add(float64(size))
}

type httpHooks struct{ r *Registry }

func (h httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.r.UpstreamRequestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	h.r.UpstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.r.UpstreamRequestsTotal.WithLabelValues(host, "error").Inc()
}
