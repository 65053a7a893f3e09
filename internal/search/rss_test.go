// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"OpenAI" - Google News</title>
    <item>
      <title>OpenAI ships new model - Example News</title>
      <link>https://news.example.com/openai</link>
      <pubDate>Mon, 09 Mar 2026 18:00:00 GMT</pubDate>
      <description>OpenAI announced a new flagship model.</description>
    </item>
    <item>
      <title>Anthropic responds - Other News</title>
      <link>https://other.example.com/anthropic</link>
      <pubDate>Mon, 09 Mar 2026 20:00:00 GMT</pubDate>
      <description>A response followed within hours.</description>
    </item>
  </channel>
</rss>`

func TestRSSSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "OpenAI" {
			t.Errorf("q = %q, want OpenAI", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	}))
	defer server.Close()

	orig := rssAPIBase
	rssAPIBase = server.URL
	defer func() { rssAPIBase = orig }()

	b := &RSSBackend{Client: server.Client()}
	results, err := b.Search(context.Background(), "OpenAI", testCfg("OpenAI"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].URL != "https://news.example.com/openai" {
		t.Errorf("URL = %s", results[0].URL)
	}
	if results[0].PublishedAt.IsZero() {
		t.Error("PublishedAt should parse from pubDate")
	}
	if results[0].SourceQuery != "OpenAI" {
		t.Errorf("SourceQuery = %q", results[0].SourceQuery)
	}
}

func TestRSSCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
		for i := 0; i < 30; i++ {
			fmt.Fprintf(w, `<item><title>Story %d</title><link>https://example.com/%d</link></item>`, i, i)
		}
		fmt.Fprint(w, `</channel></rss>`)
	}))
	defer server.Close()

	orig := rssAPIBase
	rssAPIBase = server.URL
	defer func() { rssAPIBase = orig }()

	cfg := testCfg("OpenAI")
	cfg.MaxResults = 5

	b := &RSSBackend{Client: server.Client()}
	results, err := b.Search(context.Background(), "OpenAI", cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("len(results) = %d, want 5", len(results))
	}
}

func TestRSSMalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not xml")
	}))
	defer server.Close()

	orig := rssAPIBase
	rssAPIBase = server.URL
	defer func() { rssAPIBase = orig }()

	b := &RSSBackend{Client: server.Client()}
	if _, err := b.Search(context.Background(), "OpenAI", testCfg("OpenAI")); err == nil {
		t.Fatal("want error on malformed feed")
	}
}
