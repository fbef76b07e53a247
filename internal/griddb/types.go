package griddb

import "encoding/json"

// SearchResult is one candidate game returned by /search/autocomplete.
type SearchResult struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	Verified bool     `json:"verified"`
}

// Image is one artwork candidate for a game.
type Image struct {
	ID     int    `json:"id"`
	Score  int    `json:"score"`
	Style  string `json:"style"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	NSFW   bool   `json:"nsfw"`
	Humor  bool   `json:"humor"`
	Mime   string `json:"mime"`
	URL    string `json:"url"`
	Thumb  string `json:"thumb"`
}

// envelope wraps every API v2 response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}
