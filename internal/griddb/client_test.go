package griddb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/gridsync/internal/artwork"
)

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: raw})
}

func TestParseBaseURL_Defaults(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if got := u.String(); got != DefaultBaseURL {
		t.Fatalf("base = %q, want %q", got, DefaultBaseURL)
	}
	u, err = parseBaseURL("example.com/api/v2?x=1")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.RawQuery != "" || u.Path != "/api/v2" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_SearchAndImages(t *testing.T) {
	t.Parallel()

	var gotAuth, gotSearchPath, gotDimensions, gotImagesPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v2/search/autocomplete/"):
			gotSearchPath = r.URL.EscapedPath()
			writeEnvelope(w, []SearchResult{{ID: 1234, Name: "Fate/Stay Night"}, {ID: 99}})
		case strings.HasPrefix(r.URL.Path, "/api/v2/grids/game/"):
			gotImagesPath = r.URL.Path
			gotDimensions = r.URL.Query().Get("dimensions")
			writeEnvelope(w, []Image{{ID: 7, URL: "https://cdn.example/7.png", Mime: "image/png"}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api/v2", "secret", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	results, err := c.Search(ctx, "Fate/Stay Night")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 2 || results[0].ID != 1234 {
		t.Fatalf("Search results = %#v", results)
	}
	if gotSearchPath != "/api/v2/search/autocomplete/Fate%2FStay%20Night" {
		t.Fatalf("search path = %q", gotSearchPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}

	images, err := c.Images(ctx, 1234, artwork.Grid)
	if err != nil {
		t.Fatalf("Images returned error: %v", err)
	}
	if len(images) != 1 || images[0].ID != 7 {
		t.Fatalf("Images = %#v", images)
	}
	if gotImagesPath != "/api/v2/grids/game/1234" || gotDimensions != "600x900" {
		t.Fatalf("images request = %q dimensions=%q", gotImagesPath, gotDimensions)
	}

	if _, err := c.Images(ctx, 1234, artwork.Hero); err != nil {
		t.Fatalf("Images(hero) returned error: %v", err)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/autocomplete/locked"):
			w.WriteHeader(http.StatusUnauthorized)
		case strings.Contains(r.URL.Path, "/autocomplete/missing"):
			http.NotFound(w, r)
		case strings.Contains(r.URL.Path, "/autocomplete/broken"):
			_, _ = w.Write([]byte("{not-json"))
		case strings.Contains(r.URL.Path, "/autocomplete/refused"):
			_ = json.NewEncoder(w).Encode(envelope{Success: false, Errors: []string{"rate limited"}})
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "k", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.Search(ctx, "locked"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Search(locked) error = %v, want ErrUnauthorized", err)
	}
	if res, err := c.Search(ctx, "missing"); err != nil || len(res) != 0 {
		t.Fatalf("Search(missing) = %v, %v; want no results", res, err)
	}
	if _, err := c.Search(ctx, "broken"); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Search(broken) error = %v", err)
	}
	if _, err := c.Search(ctx, "refused"); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("Search(refused) error = %v", err)
	}
	if _, err := c.Search(ctx, "other"); err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("Search(other) error = %v", err)
	}
	if _, err := c.Images(ctx, 0, artwork.Grid); err == nil {
		t.Fatal("Images(0) returned nil error")
	}
}
