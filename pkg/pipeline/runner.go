package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/meshtower/pkg/buildinfo"
	"github.com/matzehuels/meshtower/pkg/cache"
	"github.com/matzehuels/meshtower/pkg/fetch"
	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/observability"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// Runner executes the pipeline with caching.
//
// Renderers are created on first use and kept until Close, so the Graphviz
// runtime and the vis-network script are loaded once per Runner. A Runner is
// safe for concurrent use.
type Runner struct {
	Fetcher fetch.Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	// RenderOptions configures the renderers. Changes after the first run
	// have no effect.
	RenderOptions render.Options

	mu        sync.Mutex
	renderers map[string]render.Renderer
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// fetcher may be nil when only [Runner.RenderSnapshot] is used.
func NewRunner(fetcher fetch.Fetcher, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Fetcher:       fetcher,
		Cache:         c,
		Keyer:         keyer,
		Logger:        logger,
		RenderOptions: render.DefaultOptions(),
	}
}

// Execute runs fetch → build → render. The fetch and the loading of the
// requested renderers run concurrently; the build starts once both finish.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if r.Fetcher == nil {
		return nil, fmt.Errorf("no topology source configured")
	}
	set, err := r.rendererSet(opts.Formats)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	fetchStart := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, hit, err := r.FetchWithCacheInfo(gctx, opts.Refresh)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		result.Snapshot = snap
		result.CacheInfo.FetchHit = hit
		return nil
	})
	g.Go(func() error {
		return set.Load(gctx)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Stats.FetchTime = time.Since(fetchStart)

	r.Logger.Info("fetched topology",
		"source", r.Fetcher.Source(),
		"devices", len(result.Snapshot.Devices),
		"cached", result.CacheInfo.FetchHit,
		"duration", result.Stats.FetchTime)

	if err := r.process(ctx, result, set, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// RenderSnapshot runs build → render over an existing snapshot, such as an
// archived one.
func (r *Runner) RenderSnapshot(ctx context.Context, snap *topology.Snapshot, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	set, err := r.rendererSet(opts.Formats)
	if err != nil {
		return nil, err
	}
	if err := set.Load(ctx); err != nil {
		return nil, err
	}

	result := &Result{Snapshot: snap.Normalize()}
	if err := r.process(ctx, result, set, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchWithCacheInfo fetches a snapshot and reports whether it came from
// cache. Pipeline hooks fire around the fetch.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, refresh bool) (*topology.Snapshot, bool, error) {
	hooks := observability.Pipeline()
	source := r.Fetcher.Source()
	hooks.OnFetchStart(ctx, source)
	start := time.Now()

	var (
		snap *topology.Snapshot
		hit  bool
		err  error
	)
	if cr, ok := r.Fetcher.(fetch.CacheReporter); ok {
		snap, hit, err = cr.FetchWithCacheInfo(ctx, refresh)
	} else {
		snap, err = r.Fetcher.Fetch(ctx, refresh)
	}

	devices := 0
	if snap != nil {
		devices = len(snap.Devices)
	}
	hooks.OnFetchComplete(ctx, source, devices, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	return snap.Normalize(), hit, nil
}

// Build converts snap into a display graph, folding address case first when
// opts.FoldCase is set. Owner collisions are logged as warnings.
func (r *Runner) Build(ctx context.Context, snap *topology.Snapshot, opts Options) *meshgraph.Result {
	start := time.Now()
	work := snap
	if opts.FoldCase {
		work = snap.FoldAddressCase()
	}
	res := meshgraph.Build(work, opts.BuildOptions())

	for _, c := range res.Owners.Collisions() {
		r.Logger.Warn("interface claimed by two devices",
			"interface", c.Interface,
			"previous", c.Previous,
			"owner", c.Owner)
	}
	if res.Stats.DroppedLinks > 0 {
		r.Logger.Debug("dropped links with unowned endpoints", "count", res.Stats.DroppedLinks)
	}

	observability.Pipeline().OnBuildComplete(ctx, observability.BuildInfo{
		Nodes:           len(res.Graph.Nodes),
		Edges:           len(res.Graph.Edges),
		DroppedLinks:    res.Stats.DroppedLinks,
		OwnerCollisions: res.Stats.OwnerCollisions,
	}, time.Since(start))
	return res
}

// RenderWithCacheInfo renders g in every format of set, serving artifacts
// from cache where possible. The returned flag is true when every artifact
// was a cache hit.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g meshgraph.Graph, graphHash string, set render.Set) (map[string][]byte, bool, error) {
	hooks := observability.Pipeline()
	formats := make([]string, len(set))
	for i, rd := range set {
		formats[i] = rd.Format()
	}
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(set))
	allCached := true
	for _, rd := range set {
		key := r.Keyer.ArtifactKey(graphHash, ArtifactKeyOpts(rd.Format(), r.RenderOptions, buildinfo.Version))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[rd.Format()] = data
			observability.Cache().OnCacheHit(ctx, "artifact")
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		allCached = false

		data, err := rd.Render(ctx, g)
		if err != nil {
			err = fmt.Errorf("render %s: %w", rd.Format(), err)
			hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[rd.Format()] = data
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", rd.Format(), "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	hooks.OnRenderComplete(ctx, formats, time.Since(start), nil)
	return artifacts, allCached, nil
}

// Close releases the renderers and the cache.
func (r *Runner) Close() error {
	r.mu.Lock()
	set := make(render.Set, 0, len(r.renderers))
	for _, rd := range r.renderers {
		set = append(set, rd)
	}
	r.renderers = nil
	r.mu.Unlock()

	err := set.Close()
	if r.Cache != nil {
		if cerr := r.Cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (r *Runner) process(ctx context.Context, result *Result, set render.Set, opts Options) error {
	buildStart := time.Now()
	res := r.Build(ctx, result.Snapshot, opts)
	result.Stats.BuildTime = time.Since(buildStart)
	result.Build = res
	result.Graph = res.Graph
	result.GraphHash = cache.Hash(mustJSON(res.Graph))
	result.Stats.Devices = res.Stats.Devices
	result.Stats.NodeCount = len(res.Graph.Nodes)
	result.Stats.EdgeCount = len(res.Graph.Edges)
	result.Stats.DroppedLinks = res.Stats.DroppedLinks
	result.Stats.OwnerCollisions = res.Stats.OwnerCollisions

	r.Logger.Info("built graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"dropped", result.Stats.DroppedLinks,
		"duration", result.Stats.BuildTime)

	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, res.Graph, result.GraphHash, set)
	if err != nil {
		return err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return nil
}

// rendererSet returns the shared renderers for formats, creating any that
// do not exist yet.
func (r *Runner) rendererSet(formats []string) (render.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renderers == nil {
		r.renderers = make(map[string]render.Renderer)
	}

	set := make(render.Set, 0, len(formats))
	for _, f := range formats {
		rd, ok := r.renderers[f]
		if !ok {
			var err error
			rd, err = render.New(f, r.RenderOptions)
			if err != nil {
				return nil, err
			}
			r.renderers[f] = rd
		}
		set = append(set, rd)
	}
	return set, nil
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("pipeline: marshal %T: %v", v, err))
	}
	return data
}
