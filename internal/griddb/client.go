package griddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/gridsync/internal/artwork"
)

// ErrUnauthorized is returned when the API rejects the auth key.
var ErrUnauthorized = errors.New("steamgriddb rejected the auth key")

// Searcher finds games by name.
type Searcher interface {
	Search(ctx context.Context, name string) ([]SearchResult, error)
}

// Ensure Client implements Searcher at compile time.
var _ Searcher = (*Client)(nil)

// Client talks to the SteamGridDB v2 API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	authKey   string
	userAgent string
}

const (
	DefaultBaseURL   = "https://www.steamgriddb.com/api/v2"
	defaultUserAgent = "gridsync/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client. An empty baseURL selects DefaultBaseURL and a
// non-positive timeout selects the default request timeout.
func NewClient(baseURL, authKey string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		authKey:   strings.TrimSpace(authKey),
		userAgent: defaultUserAgent,
	}, nil
}

// Search returns candidate games for name, best match first. An unknown name
// yields no results and no error.
func (c *Client) Search(ctx context.Context, name string) ([]SearchResult, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var results []SearchResult
	if err := c.get(ctx, c.endpoint(nil, "search", "autocomplete", name), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Images lists artwork of category t for a SteamGridDB game id.
func (c *Client) Images(ctx context.Context, gameID int, t artwork.Type) ([]Image, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if gameID <= 0 {
		return nil, fmt.Errorf("game id required")
	}
	id := strconv.Itoa(gameID)
	values := url.Values{}
	var kind string
	switch t {
	case artwork.Grid:
		kind = "grids"
		values.Set("dimensions", "600x900")
	case artwork.WideGrid, artwork.BigPicture:
		kind = "grids"
		values.Set("dimensions", "460x215,920x430")
	case artwork.Hero:
		kind = "heroes"
	case artwork.Logo:
		kind = "logos"
	case artwork.Icon:
		kind = "icons"
	default:
		return nil, fmt.Errorf("unsupported artwork type %v", t)
	}
	var images []Image
	if err := c.get(ctx, c.endpoint(values, kind, "game", id), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// endpoint joins path segments onto the base URL, escaping each one.
func (c *Client) endpoint(values url.Values, segments ...string) *url.URL {
	u := *c.baseURL
	raw := strings.TrimSuffix(u.EscapedPath(), "/")
	plain := strings.TrimSuffix(u.Path, "/")
	for _, s := range segments {
		raw += "/" + url.PathEscape(s)
		plain += "/" + s
	}
	u.Path = plain
	u.RawPath = raw
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}
	return &u
}

func (c *Client) get(ctx context.Context, u *url.URL, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.authKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 400:
		return fmt.Errorf("api %s returned status %d", u.Path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if len(env.Errors) == 0 {
			return fmt.Errorf("api %s reported failure", u.Path)
		}
		return fmt.Errorf("api %s: %s", u.Path, strings.Join(env.Errors, "; "))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
