package fetch

import (
	"context"

	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// FileFetcher reads a snapshot from a JSON file. Path "-" reads standard
// input, which can be consumed only once.
type FileFetcher struct {
	Path string
}

// Fetch reads and decodes the file.
func (f FileFetcher) Fetch(ctx context.Context, _ bool) (*topology.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := topology.ImportJSON(f.Path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFetchFailed, err, "read topology %s", f.Source())
	}
	return s, nil
}

// Source returns the path, or "stdin".
func (f FileFetcher) Source() string {
	if f.Path == "-" {
		return "stdin"
	}
	return f.Path
}
