// Package httputil provides retry helpers for HTTP-backed clients.
//
// # Retry
//
// [Retry] re-runs an operation that failed with a [RetryableError], doubling
// the delay after each attempt. Clients wrap only transient failures:
//
//   - connection errors and timeouts
//   - 5xx responses
//
// Everything else (4xx, decode errors, ubus status codes) fails immediately.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.Call(ctx, ...)
//	})
//
// # Configuration
//
// [RetryWithBackoff] uses 3 attempts with a 1 second initial delay. Callers
// that need tighter bounds, such as the HTTP view, call [Retry] directly.
package httputil
