// Package archive keeps a history of fetched topology snapshots.
//
// [MongoStore] persists entries in a MongoDB collection for long-running
// deployments; [MemoryStore] keeps them for the life of the process. Both
// assign random UUIDs and list entries newest first.
//
// Snapshots are stored as their JSON encoding rather than as BSON documents
// so that the key order of links and neighbour groups survives the round
// trip.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Entry is one archived snapshot.
type Entry struct {
	ID         string    `bson:"_id" json:"id"`
	Source     string    `bson:"source" json:"source"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	Devices    int       `bson:"devices" json:"devices"`
	Interfaces int       `bson:"interfaces" json:"interfaces"`
	Links      int       `bson:"links" json:"links"`

	// Data is the snapshot JSON. List leaves it empty.
	Data []byte `bson:"snapshot,omitempty" json:"-"`
}

// Snapshot decodes the archived topology.
func (e *Entry) Snapshot() (*topology.Snapshot, error) {
	s, err := topology.Decode(e.Data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode archived snapshot %s", e.ID)
	}
	return s, nil
}

// Store persists snapshots.
type Store interface {
	// Save archives snap under a new id.
	Save(ctx context.Context, source string, snap *topology.Snapshot) (*Entry, error)
	// Get returns the entry with id, including its data.
	Get(ctx context.Context, id string) (*Entry, error)
	// List returns up to limit entries, newest first, without data.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// newEntry builds the entry for snap with a fresh id.
func newEntry(source string, snap *topology.Snapshot, now time.Time) (*Entry, error) {
	snap = snap.Normalize()
	data, err := topology.Marshal(snap)
	if err != nil {
		return nil, err
	}
	devices, interfaces, links := snap.Counts()
	return &Entry{
		ID:         uuid.NewString(),
		Source:     source,
		CreatedAt:  now.UTC().Truncate(time.Millisecond),
		Devices:    devices,
		Interfaces: interfaces,
		Links:      links,
		Data:       data,
	}, nil
}

func notFound(id string) error {
	return errs.New(errs.ErrCodeNotFound, "archived snapshot %s not found", id)
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid archive id %q", id)
	}
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
