// Package cache stores fetched topology snapshots and rendered artifacts.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entry files under ~/.cache/meshtower/, for CLI runs
//   - [RedisCache]: a shared Redis instance, for `meshtower serve` fleets
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys come from a [Keyer]. The default keyer hashes every input that can
// change the cached value, so stale entries are never served for a
// different endpoint or render option.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind.
const (
	// Topology changes as stations roam; keep snapshots briefly.
	SnapshotTTL = 30 * time.Second
	// Artifacts are keyed by graph content, so they only go stale by disuse.
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
//
// Get reports a miss with ok == false and a nil error. A ttl of zero means
// the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// SnapshotKey keys a fetched snapshot by its source.
	SnapshotKey(source string, opts SnapshotKeyOpts) string
	// ArtifactKey keys a rendered artifact by the hash of the graph it shows.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// SnapshotKeyOpts holds the fetch options that affect a snapshot.
type SnapshotKeyOpts struct {
	Object string `json:"object,omitempty"`
	Method string `json:"method,omitempty"`
}

// ArtifactKeyOpts holds the render options that affect an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Renderer string `json:"renderer,omitempty"`
	Version  string `json:"version,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SnapshotKey returns "snapshot:<sha256>".
func (DefaultKeyer) SnapshotKey(source string, opts SnapshotKeyOpts) string {
	return hashKey("snapshot", source, opts)
}

// ArtifactKey returns "artifact:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, graphHash, opts)
}
