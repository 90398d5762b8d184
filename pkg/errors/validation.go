package errors

import (
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// ValidateFormat checks that name is one of the supported output formats.
// Matching is exact; callers lower-case user input first.
func ValidateFormat(name string, supported ...string) error {
	if name == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(supported, name) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (supported: %s)", name, strings.Join(supported, ", "))
	}
	return nil
}

// ValidateEndpoint validates a ubus JSON-RPC endpoint URL.
//
// Validation rules:
//   - URL cannot be empty
//   - Scheme must be http or https
//   - A host is required
//   - No user info (credentials go through login, not the URL)
func ValidateEndpoint(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "endpoint URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid endpoint URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "endpoint URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "endpoint URL has no host")
	}
	if u.User != nil {
		return New(ErrCodeInvalidInput, "endpoint URL must not embed credentials")
	}
	return nil
}

// ValidateOutputPath validates a file path given for rendered output.
// "-" (standard output) is accepted.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output path contains invalid characters")
		}
	}
	return nil
}

// ValidateAddress validates an AL or interface address given on the command
// line. Addresses are opaque strings; only emptiness, length and control
// characters are checked.
func ValidateAddress(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidAddress, "address cannot be empty")
	}
	if len(addr) > 64 {
		return New(ErrCodeInvalidAddress, "address too long (max 64 characters)")
	}
	for _, r := range addr {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidAddress, "address contains invalid characters: %q", addr)
		}
	}
	return nil
}
