package integrations

import (
	"crypto/tls"
	"errors"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single request. Routers under load answer slowly,
// but a topology dump never takes this long.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when the endpoint does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// HTTPOptions configures [NewHTTPClient].
type HTTPOptions struct {
	Timeout time.Duration
	// Insecure skips TLS certificate verification. Most routers serve a
	// self-signed certificate on their LAN address.
	Insecure bool
}

// NewHTTPClient creates an HTTP client for device requests.
func NewHTTPClient(opts HTTPOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	c := &http.Client{Timeout: opts.Timeout}
	if opts.Insecure {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed router certs
		c.Transport = tr
	}
	return c
}
