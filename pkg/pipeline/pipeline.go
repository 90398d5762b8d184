// Package pipeline provides the fetch → build → render pipeline behind every
// meshtower entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: obtain a topology snapshot (file, stdin or live ubus call).
//     Renderer initialisation runs concurrently with this stage.
//  2. Build: turn the snapshot into a display graph (see [meshgraph.Build]).
//  3. Render: produce one artifact per requested format.
//
// The CLI, the HTTP server and the archive re-render path all share one
// [Runner], so caching and logging behave the same everywhere.
//
// # Usage
//
//	runner := pipeline.NewRunner(fetcher, cache, nil, logger)
//	defer runner.Close()
//	result, err := runner.Execute(ctx, pipeline.Options{Formats: []string{"html"}})
//	if err != nil {
//	    return err
//	}
//	page := result.Artifacts["html"]
//
// Render an already obtained snapshot:
//
//	result, err := runner.RenderSnapshot(ctx, snap, opts)
package pipeline

import (
	"time"

	"github.com/matzehuels/meshtower/pkg/cache"
	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = render.FormatHTML

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the per-run pipeline configuration.
type Options struct {
	// Formats lists the artifacts to produce. Defaults to html.
	Formats []string `json:"formats,omitempty"`

	// FoldCase lower-cases every address before the build, so links
	// reported with mixed-case MACs pair up.
	FoldCase bool `json:"fold_case,omitempty"`

	// Refresh bypasses the snapshot cache.
	Refresh bool `json:"refresh,omitempty"`

	// Node images; empty means the meshgraph defaults.
	DeviceImage   string `json:"device_image,omitempty"`
	NeighborImage string `json:"neighbor_image,omitempty"`

	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	seen := make(map[string]bool, len(o.Formats))
	formats := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		if err := errs.ValidateFormat(f, render.Formats()...); err != nil {
			return err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	o.Formats = formats
	o.validated = true
	return nil
}

// BuildOptions returns the graph builder options.
func (o *Options) BuildOptions() meshgraph.Options {
	return meshgraph.Options{DeviceImage: o.DeviceImage, NeighborImage: o.NeighborImage}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the topology as fetched (before case folding).
	Snapshot *topology.Snapshot

	// Graph is the display graph the artifacts were rendered from.
	Graph meshgraph.Graph

	// Build carries the builder's intermediate containers and counters.
	Build *meshgraph.Result

	// GraphHash is the content hash of Graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Devices         int
	NodeCount       int
	EdgeCount       int
	DroppedLinks    int
	OwnerCollisions int
	FetchTime       time.Duration
	BuildTime       time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FetchHit  bool // Whether the snapshot came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func ArtifactKeyOpts(format string, renderOpts render.Options, version string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Renderer: cache.Hash(mustJSON(renderOpts)),
		Version:  version,
	}
}
