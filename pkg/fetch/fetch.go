// Package fetch retrieves topology snapshots.
//
// A [Fetcher] produces one [topology.Snapshot] per call:
//
//   - [FileFetcher]: a get_topology JSON dump on disk, or standard input
//   - [UbusFetcher]: a live umap get_topology call through rpcd
//   - [CachingFetcher]: any Fetcher behind a [cache.Cache]
//
// Every fetcher returns a normalized snapshot: absent collections are empty.
package fetch

import (
	"context"

	"github.com/matzehuels/meshtower/pkg/topology"
)

// Fetcher retrieves a topology snapshot.
type Fetcher interface {
	// Fetch returns the current snapshot. If refresh is true, cached data
	// is bypassed.
	Fetch(ctx context.Context, refresh bool) (*topology.Snapshot, error)
	// Source identifies where snapshots come from (a path or a URL). It is
	// used in cache keys and log lines.
	Source() string
}

// CacheReporter is implemented by fetchers that can tell whether a result
// came from cache.
type CacheReporter interface {
	FetchWithCacheInfo(ctx context.Context, refresh bool) (snap *topology.Snapshot, hit bool, err error)
}

// Func adapts a function to [Fetcher].
type Func struct {
	Name string
	Fn   func(ctx context.Context) (*topology.Snapshot, error)
}

// Fetch calls f.Fn.
func (f Func) Fetch(ctx context.Context, _ bool) (*topology.Snapshot, error) {
	s, err := f.Fn(ctx)
	if err != nil {
		return nil, err
	}
	return s.Normalize(), nil
}

// Source returns f.Name.
func (f Func) Source() string { return f.Name }
