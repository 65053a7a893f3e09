// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

func TestTavilySearch(t *testing.T) {
	var gotReq tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"title":          "OpenAI ships new model",
					"url":            "https://news.example.com/openai",
					"content":        "OpenAI announced...",
					"score":          0.93,
					"published_date": "2026-03-09T18:00:00Z",
				},
				{
					"title":   "Undated story",
					"url":     "https://news.example.com/undated",
					"content": "No timestamp here.",
				},
			},
		})
	}))
	defer server.Close()

	orig := tavilyAPIBase
	tavilyAPIBase = server.URL
	defer func() { tavilyAPIBase = orig }()

	cfg := testCfg("OpenAI")
	cfg.TavilyAPIKey = "tvly-test"
	cfg.SearchDepth = "advanced"

	b := &TavilyBackend{Client: server.Client()}
	results, err := b.Search(context.Background(), "OpenAI", cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.Query != "OpenAI" || gotReq.APIKey != "tvly-test" || gotReq.SearchDepth != "advanced" {
		t.Errorf("request = %+v", gotReq)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	want := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	if !results[0].PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", results[0].PublishedAt, want)
	}
	if !results[1].PublishedAt.IsZero() {
		t.Errorf("undated result PublishedAt = %v, want zero", results[1].PublishedAt)
	}
	if results[0].SourceQuery != "OpenAI" {
		t.Errorf("SourceQuery = %q", results[0].SourceQuery)
	}
}

func TestTavilyMissingKey(t *testing.T) {
	b := &TavilyBackend{Client: http.DefaultClient}
	_, err := b.Search(context.Background(), "OpenAI", testCfg("OpenAI"))
	if err == nil {
		t.Fatal("want error without API key")
	}
	if types.IsTransient(err) {
		t.Error("missing key should be permanent, not transient")
	}
}

func TestTavilyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream timeout", http.StatusBadGateway)
	}))
	defer server.Close()

	orig := tavilyAPIBase
	tavilyAPIBase = server.URL
	defer func() { tavilyAPIBase = orig }()

	cfg := testCfg("OpenAI")
	cfg.TavilyAPIKey = "tvly-test"

	b := &TavilyBackend{Client: server.Client()}
	_, err := b.Search(context.Background(), "OpenAI", cfg)
	if err == nil {
		t.Fatal("want error on 502")
	}
	if !types.IsTransient(err) {
		t.Error("5xx should classify transient")
	}
}

func TestTavilyClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	orig := tavilyAPIBase
	tavilyAPIBase = server.URL
	defer func() { tavilyAPIBase = orig }()

	cfg := testCfg("OpenAI")
	cfg.TavilyAPIKey = "tvly-bad"

	b := &TavilyBackend{Client: server.Client()}
	_, err := b.Search(context.Background(), "OpenAI", cfg)
	if err == nil {
		t.Fatal("want error on 401")
	}
	if types.IsTransient(err) {
		t.Error("4xx should classify permanent")
	}
}

func TestParseTavilyDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2026-03-09T18:00:00Z", false},
		{"Mon, 09 Mar 2026 18:00:00 UTC", false},
		{"2026-03-09", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		_, err := parseTavilyDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTavilyDate(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
