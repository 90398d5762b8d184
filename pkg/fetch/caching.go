package fetch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshtower/pkg/cache"
	"github.com/matzehuels/meshtower/pkg/integrations/ubus"
	"github.com/matzehuels/meshtower/pkg/observability"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// CachingFetcher serves snapshots from a cache, falling back to Inner on a
// miss. Cache read and write failures are logged and otherwise ignored.
type CachingFetcher struct {
	Inner  Fetcher
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCachingFetcher wraps inner. A nil keyer uses the default keyer; a zero
// ttl uses [cache.SnapshotTTL].
func NewCachingFetcher(inner Fetcher, c cache.Cache, keyer cache.Keyer, ttl time.Duration, logger *log.Logger) *CachingFetcher {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = cache.SnapshotTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachingFetcher{Inner: inner, Cache: c, Keyer: keyer, TTL: ttl, Logger: logger}
}

// Fetch implements [Fetcher].
func (f *CachingFetcher) Fetch(ctx context.Context, refresh bool) (*topology.Snapshot, error) {
	s, _, err := f.FetchWithCacheInfo(ctx, refresh)
	return s, err
}

// FetchWithCacheInfo implements [CacheReporter].
func (f *CachingFetcher) FetchWithCacheInfo(ctx context.Context, refresh bool) (*topology.Snapshot, bool, error) {
	key := f.Keyer.SnapshotKey(f.Inner.Source(), cache.SnapshotKeyOpts{
		Object: ubus.TopologyObject,
		Method: ubus.TopologyMethod,
	})
	hooks := observability.Cache()

	if !refresh {
		data, hit, err := f.Cache.Get(ctx, key)
		if err != nil {
			f.Logger.Warn("snapshot cache read failed", "error", err)
		}
		if hit {
			if s, err := topology.Decode(data); err == nil {
				hooks.OnCacheHit(ctx, "snapshot")
				return s, true, nil
			}
		}
		hooks.OnCacheMiss(ctx, "snapshot")
	}

	s, err := f.Inner.Fetch(ctx, refresh)
	if err != nil {
		return nil, false, err
	}
	if data, err := topology.Marshal(s); err == nil {
		if err := f.Cache.Set(ctx, key, data, f.TTL); err != nil {
			f.Logger.Warn("snapshot cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "snapshot", len(data))
		}
	}
	return s, false, nil
}

// Source returns the wrapped fetcher's source.
func (f *CachingFetcher) Source() string { return f.Inner.Source() }
