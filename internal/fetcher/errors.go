package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrKind classifies a fetch failure for machine-readable error reporting.
type ErrKind string

const (
	ErrKindConnection ErrKind = "connection"
	ErrKindTimeout    ErrKind = "timeout"
	ErrKindHTTPStatus ErrKind = "http_status"
	ErrKindOther      ErrKind = "other"
)

// FetchError is the terminal error for one document fetch, produced after
// retries are exhausted or on a non-retryable response.
type FetchError struct {
	Kind       ErrKind
	URL        string
	StatusCode int // set only for ErrKindHTTPStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == ErrKindHTTPStatus {
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify wraps a transport-level error into a FetchError with the
// appropriate kind. HTTP status errors are constructed directly at the
// response site, not here.
func classify(url string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	kind := ErrKindOther

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ErrKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrKindTimeout
	default:
		var opErr *net.OpError
		var dnsErr *net.DNSError
		if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
			kind = ErrKindConnection
		}
	}

	return &FetchError{Kind: kind, URL: url, Err: err}
}
