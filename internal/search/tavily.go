// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/daily-analyst/internal/httputil"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

// tavilyAPIBase is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com"

// TavilyBackend queries the Tavily search API.
type TavilyBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *TavilyBackend) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Search issues one Tavily query for a topic.
func (b *TavilyBackend) Search(ctx context.Context, topic string, cfg types.SearchConfig) ([]types.RawResult, error) {
	if cfg.TavilyAPIKey == "" {
		return nil, types.PermanentError("tavily", fmt.Errorf("missing API key"))
	}

	depth := cfg.SearchDepth
	if depth == "" {
		depth = "basic"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      cfg.TavilyAPIKey,
		Query:       topic,
		SearchDepth: depth,
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.Do("tavily", b.Client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus("tavily", resp); err != nil {
		return nil, err
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.PermanentError("tavily", fmt.Errorf("parsing response: %w", err))
	}

	var results []types.RawResult
	for _, r := range parsed.Results {
		raw := types.RawResult{
			SourceQuery: topic,
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     r.Content,
		}
		if t, parseErr := parseTavilyDate(r.PublishedDate); parseErr == nil {
			raw.PublishedAt = t
		}
		results = append(results, raw)
	}
	return results, nil
}

// parseTavilyDate accepts the date layouts Tavily has been observed to use.
func parseTavilyDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{time.RFC3339, time.RFC1123, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
