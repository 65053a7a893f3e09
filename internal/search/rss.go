// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/daily-analyst/internal/httputil"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

// rssAPIBase is the Google News RSS endpoint. Declared as a var so tests
// can substitute an httptest server.
var rssAPIBase = "https://news.google.com/rss/search"

// RSSBackend queries Google News search RSS for a topic.
type RSSBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *RSSBackend) Name() string { return "rss" }

// Search fetches and parses the topic's RSS feed.
func (b *RSSBackend) Search(ctx context.Context, topic string, cfg types.SearchConfig) ([]types.RawResult, error) {
	feedURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", rssAPIBase, url.QueryEscape(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.Do("rss", b.Client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus("rss", resp); err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, types.PermanentError("rss", fmt.Errorf("parsing feed: %w", err))
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	var results []types.RawResult
	for _, item := range feed.Items {
		if len(results) >= maxResults {
			break
		}
		raw := types.RawResult{
			SourceQuery: topic,
			URL:         item.Link,
			Title:       item.Title,
			Snippet:     item.Description,
		}
		if item.PublishedParsed != nil {
			raw.PublishedAt = item.PublishedParsed.UTC()
		}
		results = append(results, raw)
	}
	return results, nil
}
