package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Payload is the body of a fetched image.
type Payload struct {
	Data        []byte
	ContentType string
}

// Fetcher retrieves the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Payload, error)
}

// Ensure HTTPFetcher implements Fetcher at compile time.
var _ Fetcher = (*HTTPFetcher)(nil)

const (
	defaultUserAgent = "gridsync/0.1"
	defaultMaxBytes  = 32 << 20
)

// HTTPFetcher fetches images over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher returns a fetcher whose individual requests are bounded by
// timeout. Non-positive values leave the bound to the caller's context.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &HTTPFetcher{client: client, userAgent: defaultUserAgent, maxBytes: defaultMaxBytes}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Payload, error) {
	if f == nil {
		return Payload{}, errors.New("fetcher is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Payload{}, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Payload{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Payload{}, fmt.Errorf("fetch %s: body exceeds %d bytes", url, f.maxBytes)
	}
	return Payload{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
