// Package integrations provides HTTP clients for the devices meshtower talks
// to.
//
// # Overview
//
// [Client] is the shared transport: default headers, JSON request and
// response bodies, status classification and TLS settings. Device-specific
// clients embed it:
//
//   - [ubus]: OpenWrt ubus JSON-RPC (rpcd), used to call umap get_topology
//
// # Errors
//
// Transport failures and 5xx responses are returned as
// [httputil.RetryableError] wrapping [ErrNetwork], so callers can hand the
// operation to [httputil.Retry]. A 404 becomes [ErrNotFound]; other non-2xx
// statuses wrap [ErrNetwork] without the retry marker.
package integrations
