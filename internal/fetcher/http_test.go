package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:   "test-agent",
		Timeout:     5 * time.Second,
		MaxRetries:  5,
		BackoffBase: time.Millisecond,
		RateLimit:   1000,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("<xbrl/>"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	body, err := f.Fetch(context.Background(), srv.URL+"/doc.xml")
	require.NoError(t, err)
	assert.Equal(t, "<xbrl/>", string(body))
}

func TestFetch_RetriesOn503ThenSucceeds(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int64(3), attempts.Load())
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int64(5), attempts.Load())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrKindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
}

func TestFetch_NoRetryOn404(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int64(1), attempts.Load(), "non-retryable status must fail on first attempt")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrKindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	// Grab a port nobody is listening on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
		RateLimit:   1000,
	})
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrKindConnection, fe.Kind)
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Timeout:     50 * time.Millisecond,
		MaxRetries:  1,
		BackoffBase: time.Millisecond,
		RateLimit:   1000,
	})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrKindTimeout, fe.Kind)
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	f := newTestFetcher()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
}

func TestFetch_ExtraHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "https://example.test/", r.Header.Get("Referer"))
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Accept:      "application/json",
		MaxRetries:  1,
		BackoffBase: time.Millisecond,
		RateLimit:   1000,
		Headers:     map[string]string{"Referer": "https://example.test/"},
	})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
}

func TestFetchError_Message(t *testing.T) {
	fe := &FetchError{Kind: ErrKindHTTPStatus, URL: "https://x/y.xml", StatusCode: 503}
	assert.Equal(t, "fetch https://x/y.xml: http 503", fe.Error())

	fe = &FetchError{Kind: ErrKindTimeout, URL: "https://x/y.xml", Err: errors.New("deadline exceeded")}
	assert.Contains(t, fe.Error(), "timeout")
}
