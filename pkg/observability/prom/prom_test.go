package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/meshtower/pkg/observability"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.FetchesTotal == nil || r.GraphNodes == nil || r.HTTPRequestsTotal == nil {
		t.Fatal("collectors not initialized")
	}
	if r.Prometheus() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestInstall_RoutesHooks(t *testing.T) {
	r := NewRegistry()
	r.Install()
	t.Cleanup(observability.Reset)
	ctx := context.Background()

	observability.Pipeline().OnFetchComplete(ctx, "src", 3, time.Millisecond, nil)
	observability.Pipeline().OnFetchComplete(ctx, "src", 0, time.Millisecond, errors.New("boom"))
	observability.Pipeline().OnBuildComplete(ctx, observability.BuildInfo{Nodes: 5, Edges: 4, DroppedLinks: 1}, time.Microsecond)
	observability.Pipeline().OnRenderComplete(ctx, []string{"svg", "html"}, time.Millisecond, nil)
	observability.Cache().OnCacheHit(ctx, "snapshot")
	observability.Cache().OnCacheMiss(ctx, "artifact")
	observability.Cache().OnCacheSet(ctx, "artifact", 512)
	observability.HTTP().OnResponse(ctx, "POST", "192.168.1.1", "/ubus", 200, time.Millisecond)
	observability.HTTP().OnError(ctx, "POST", "192.168.1.1", "/ubus", errors.New("refused"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"fetch ok", testutil.ToFloat64(r.FetchesTotal.WithLabelValues("ok")), 1},
		{"fetch error", testutil.ToFloat64(r.FetchesTotal.WithLabelValues("error")), 1},
		{"devices keeps last success", testutil.ToFloat64(r.Devices), 3},
		{"nodes", testutil.ToFloat64(r.GraphNodes), 5},
		{"edges", testutil.ToFloat64(r.GraphEdges), 4},
		{"dropped", testutil.ToFloat64(r.DroppedLinks), 1},
		{"renders svg", testutil.ToFloat64(r.RendersTotal.WithLabelValues("svg", "ok")), 1},
		{"cache hit", testutil.ToFloat64(r.CacheRequestsTotal.WithLabelValues("snapshot", "hit")), 1},
		{"cache miss", testutil.ToFloat64(r.CacheRequestsTotal.WithLabelValues("artifact", "miss")), 1},
		{"cache bytes", testutil.ToFloat64(r.CacheBytesWritten.WithLabelValues("artifact")), 512},
		{"upstream ok", testutil.ToFloat64(r.UpstreamRequestsTotal.WithLabelValues("192.168.1.1", "200")), 1},
		{"upstream error", testutil.ToFloat64(r.UpstreamRequestsTotal.WithLabelValues("192.168.1.1", "error")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/api/graph", 200, 10*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/graph", 200, 20*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/graph", 502, 5*time.Millisecond)

	if got := testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/api/graph", "200")); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/api/graph", "502")); got != 1 {
		t.Errorf("502 count = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.GraphNodes.Set(7)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), "meshtower_graph_nodes 7") {
		t.Errorf("exposition missing graph_nodes:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("exposition missing runtime collectors")
	}
}
