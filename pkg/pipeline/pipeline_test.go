package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshtower/pkg/cache"
	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/fetch"
	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/topology"
)

const sampleTopology = `{
	"devices": [
		{
			"al_address": "AA",
			"interfaces": [{"address": "A1", "links": {"b1": {"is_bridge": false, "speed": 1000, "rssi": 255}}}]
		},
		{
			"al_address": "BB",
			"interfaces": [{"address": "B1"}],
			"neighbors": {"others": {"eth0": ["CC"]}}
		}
	]
}`

func sampleSnapshot(t *testing.T) *topology.Snapshot {
	t.Helper()
	s, err := topology.Decode([]byte(sampleTopology))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

type countingFetcher struct {
	snap  *topology.Snapshot
	err   error
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(ctx context.Context, _ bool) (*topology.Snapshot, error) {
	f.calls.Add(1)
	return f.snap, f.err
}

func (f *countingFetcher) Source() string { return "test" }

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.Formats, []string{DefaultFormat}) {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
}

func TestOptions_Formats(t *testing.T) {
	opts := Options{Formats: []string{"json", "dot", "json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.Formats, []string{"json", "dot"}) {
		t.Errorf("Formats = %v, want duplicates removed", opts.Formats)
	}

	bad := Options{Formats: []string{"svg", "pdf"}}
	err := bad.ValidateAndSetDefaults()
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestOptions_Idempotent(t *testing.T) {
	opts := Options{Formats: []string{"json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	opts.Formats = append(opts.Formats, "bogus")
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should not revalidate: %v", err)
	}
}

func TestExecute(t *testing.T) {
	f := &countingFetcher{snap: sampleSnapshot(t)}
	r := NewRunner(f, nil, nil, quietLogger())
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{Formats: []string{"json", "dot"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if got := res.Graph.NodeIDs(); !reflect.DeepEqual(got, []string{"AA", "BB", "CC"}) {
		t.Errorf("nodes = %v", got)
	}
	// A1-b1 never resolves without case folding.
	if res.Stats.DroppedLinks != 1 || res.Stats.EdgeCount != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Artifacts) != 2 || !bytes.Contains(res.Artifacts["dot"], []byte("graph G")) {
		t.Errorf("artifacts = %v", keys(res.Artifacts))
	}
	if res.GraphHash == "" || res.Snapshot == nil || res.Build == nil {
		t.Error("result incomplete")
	}
	if res.Stats.BuildTime <= 0 || res.Stats.RenderTime <= 0 {
		t.Errorf("stage timings not recorded: build=%s render=%s", res.Stats.BuildTime, res.Stats.RenderTime)
	}
}

func TestExecute_FoldCase(t *testing.T) {
	f := &countingFetcher{snap: sampleSnapshot(t)}
	r := NewRunner(f, nil, nil, quietLogger())
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{Formats: []string{"json"}, FoldCase: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.DroppedLinks != 0 || res.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v, want the folded link emitted", res.Stats)
	}
	if got := res.Graph.NodeIDs(); !reflect.DeepEqual(got, []string{"aa", "bb", "cc"}) {
		t.Errorf("nodes = %v, want folded ids", got)
	}
	if res.Snapshot.Devices[0].ALAddress != "AA" {
		t.Error("Result.Snapshot should be the unfolded snapshot")
	}
}

func TestExecute_FetchError(t *testing.T) {
	f := &countingFetcher{err: errs.New(errs.ErrCodeFetchFailed, "router unreachable")}
	r := NewRunner(f, nil, nil, quietLogger())
	defer r.Close()

	_, err := r.Execute(context.Background(), Options{Formats: []string{"json"}})
	if !errs.Is(err, errs.ErrCodeFetchFailed) {
		t.Errorf("error = %v, want FETCH_FAILED", err)
	}
	if !strings.HasPrefix(err.Error(), "fetch: ") {
		t.Errorf("error = %q, want fetch prefix", err)
	}
}

func TestExecute_NoFetcher(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	if _, err := r.Execute(context.Background(), Options{}); err == nil {
		t.Error("Execute() without fetcher should fail")
	}
}

func TestExecute_InvalidOptions(t *testing.T) {
	f := &countingFetcher{snap: sampleSnapshot(t)}
	r := NewRunner(f, nil, nil, quietLogger())
	if _, err := r.Execute(context.Background(), Options{Formats: []string{"gif"}}); err == nil {
		t.Error("Execute() should reject unknown format")
	}
	if f.calls.Load() != 0 {
		t.Error("fetch ran despite invalid options")
	}
}

func TestExecute_ArtifactCache(t *testing.T) {
	c := newMemCache()
	f := &countingFetcher{snap: sampleSnapshot(t)}
	r := NewRunner(f, c, nil, quietLogger())
	defer r.Close()

	first, err := r.Execute(context.Background(), Options{Formats: []string{"json"}})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run should miss the artifact cache")
	}

	second, err := r.Execute(context.Background(), Options{Formats: []string{"json"}})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}
	if !bytes.Equal(first.Artifacts["json"], second.Artifacts["json"]) {
		t.Error("cached artifact differs")
	}
	if first.GraphHash != second.GraphHash {
		t.Error("graph hash not stable")
	}
}

func TestExecute_SnapshotCache(t *testing.T) {
	c := newMemCache()
	inner := &countingFetcher{snap: sampleSnapshot(t)}
	cf := fetch.NewCachingFetcher(inner, c, nil, time.Minute, quietLogger())
	r := NewRunner(cf, c, nil, quietLogger())
	defer r.Close()

	for range 2 {
		if _, err := r.Execute(context.Background(), Options{Formats: []string{"json"}}); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner fetches = %d, want 1", inner.calls.Load())
	}

	res, err := r.Execute(context.Background(), Options{Formats: []string{"json"}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.FetchHit || inner.calls.Load() != 2 {
		t.Errorf("refresh did not bypass the cache: hit=%v calls=%d", res.CacheInfo.FetchHit, inner.calls.Load())
	}
}

type slowRenderer struct {
	render.JSON
	loaded  chan struct{}
	fetched chan struct{}
}

func (s *slowRenderer) Load(ctx context.Context) error {
	close(s.loaded)
	select {
	case <-s.fetched:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("fetch did not run concurrently with load")
	}
}

func TestExecute_FetchAndLoadOverlap(t *testing.T) {
	sr := &slowRenderer{loaded: make(chan struct{}), fetched: make(chan struct{})}
	f := fetch.Func{Name: "overlap", Fn: func(ctx context.Context) (*topology.Snapshot, error) {
		<-sr.loaded
		close(sr.fetched)
		return &topology.Snapshot{}, nil
	}}

	r := NewRunner(f, nil, nil, quietLogger())
	r.renderers = map[string]render.Renderer{"json": sr}

	if _, err := r.Execute(context.Background(), Options{Formats: []string{"json"}}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}

func TestExecute_LogsCollisions(t *testing.T) {
	snap := &topology.Snapshot{Devices: []topology.Device{
		{ALAddress: "AA", Interfaces: []topology.Interface{{Address: "X1"}}},
		{ALAddress: "BB", Interfaces: []topology.Interface{{Address: "X1"}}},
	}}
	var buf bytes.Buffer
	r := NewRunner(&countingFetcher{snap: snap}, nil, nil, log.New(&buf))
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{Formats: []string{"json"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.OwnerCollisions != 1 {
		t.Errorf("collisions = %d, want 1", res.Stats.OwnerCollisions)
	}
	if !strings.Contains(buf.String(), "interface claimed by two devices") {
		t.Errorf("collision not logged:\n%s", buf.String())
	}
}

func TestRenderSnapshot(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	defer r.Close()

	res, err := r.RenderSnapshot(context.Background(), nil, Options{Formats: []string{"json"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Graph.Empty() {
		t.Errorf("graph = %+v, want empty", res.Graph)
	}
	if string(res.Artifacts["json"]) != "{\n  \"nodes\": [],\n  \"edges\": []\n}\n" {
		t.Errorf("json = %q", res.Artifacts["json"])
	}
}

func TestRunner_ReusesRenderers(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	defer r.Close()

	a, err := r.rendererSet([]string{"dot"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.rendererSet([]string{"json", "dot"})
	if err != nil {
		t.Fatal(err)
	}
	if a[0] != b[1] {
		t.Error("dot renderer recreated")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	a := ArtifactKeyOpts("html", render.DefaultOptions(), "v1")
	b := ArtifactKeyOpts("html", render.Options{}, "v1")
	if a.Renderer == b.Renderer {
		t.Error("renderer options not reflected in key")
	}
	k := cache.NewDefaultKeyer()
	if k.ArtifactKey("h", a) == k.ArtifactKey("h", ArtifactKeyOpts("html", render.DefaultOptions(), "v2")) {
		t.Error("version not reflected in key")
	}
}

func TestBuildOptions(t *testing.T) {
	opts := Options{DeviceImage: "d.png"}
	want := meshgraph.Options{DeviceImage: "d.png"}
	if got := opts.BuildOptions(); got != want {
		t.Errorf("BuildOptions() = %+v, want %+v", got, want)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
