package fetch

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshtower/pkg/httputil"
	"github.com/matzehuels/meshtower/pkg/integrations/ubus"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// UbusFetcher calls umap get_topology on a router. Transient transport
// failures are retried with backoff; ubus status errors are not.
type UbusFetcher struct {
	Client *ubus.Client
	Logger *log.Logger
}

// NewUbusFetcher wraps client.
func NewUbusFetcher(client *ubus.Client, logger *log.Logger) *UbusFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &UbusFetcher{Client: client, Logger: logger}
}

// Fetch performs the call.
func (f *UbusFetcher) Fetch(ctx context.Context, _ bool) (*topology.Snapshot, error) {
	var snap *topology.Snapshot
	attempt := 0
	err := httputil.RetryWithBackoff(ctx, func() error {
		attempt++
		if attempt > 1 {
			f.Logger.Warn("retrying topology fetch", "url", f.Client.URL(), "attempt", attempt)
		}
		s, err := f.Client.GetTopology(ctx)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Source returns the rpcd URL.
func (f *UbusFetcher) Source() string { return f.Client.URL() }
