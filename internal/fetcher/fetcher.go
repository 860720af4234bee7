// Package fetcher downloads XBRL disclosure documents over HTTP with
// retry, backoff, and request rate limiting.
package fetcher

import "context"

// Fetcher retrieves the raw bytes of one remote document.
type Fetcher interface {
	// Fetch performs a GET against url and returns the response body.
	// Failures after retry exhaustion are reported as *FetchError.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
