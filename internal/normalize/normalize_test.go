// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

// --- Normalize ---

func TestNormalizeMergesCaseVariants(t *testing.T) {
	raw := []types.RawResult{
		{SourceQuery: "OpenAI", URL: "https://example.com/story", Title: "OpenAI Launches New Model"},
		{SourceQuery: "AI models", URL: "https://example.com/story?ref=home", Title: "openai launches new model"},
	}

	out := Normalize(raw)
	if out.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", out.Dropped)
	}
	if len(out.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(out.Records))
	}

	rec := out.Records[0]
	if len(rec.SourceURLs) != 2 {
		t.Errorf("SourceURLs = %v, want both URL variants", rec.SourceURLs)
	}
	if len(rec.TopicTags) != 2 {
		t.Errorf("TopicTags = %v, want both queries", rec.TopicTags)
	}
	// Both variants are the same length; the first in sorted URL order wins.
	if rec.Title != "OpenAI Launches New Model" {
		t.Errorf("Title = %q", rec.Title)
	}
}

func TestNormalizeMergesByURL(t *testing.T) {
	// Same URL with different headlines still merges; a URL belongs to
	// exactly one record.
	raw := []types.RawResult{
		{SourceQuery: "q1", URL: "https://example.com/a", Title: "Headline as query one saw it"},
		{SourceQuery: "q2", URL: "https://example.com/a", Title: "A very different headline"},
	}

	out := Normalize(raw)
	if len(out.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(out.Records))
	}
}

func TestNormalizeDropsMalformed(t *testing.T) {
	raw := []types.RawResult{
		{SourceQuery: "q", URL: "", Title: "No URL"},
		{SourceQuery: "q", URL: "https://example.com/x", Title: "   "},
		{SourceQuery: "q", URL: "https://example.com/ok", Title: "Fine"},
	}

	out := Normalize(raw)
	if out.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", out.Dropped)
	}
	if len(out.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(out.Records))
	}
}

func TestNormalizeKeepsEarliestPublished(t *testing.T) {
	early := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(6 * time.Hour)
	raw := []types.RawResult{
		{SourceQuery: "q", URL: "https://example.com/s", Title: "Story", PublishedAt: late},
		{SourceQuery: "q", URL: "https://example.com/s", Title: "Story", PublishedAt: early},
		{SourceQuery: "q", URL: "https://example.com/s", Title: "Story"}, // unknown
	}

	out := Normalize(raw)
	if len(out.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(out.Records))
	}
	if !out.Records[0].PublishedAt.Equal(early) {
		t.Errorf("PublishedAt = %v, want %v", out.Records[0].PublishedAt, early)
	}
}

func TestNormalizeKeepsLongestExcerpt(t *testing.T) {
	raw := []types.RawResult{
		{SourceQuery: "q", URL: "https://example.com/s", Title: "Story", Snippet: "short"},
		{SourceQuery: "q", URL: "https://example.com/s", Title: "Story", Snippet: "a much longer snippet with detail"},
	}

	out := Normalize(raw)
	if out.Records[0].BodyExcerpt != "a much longer snippet with detail" {
		t.Errorf("BodyExcerpt = %q", out.Records[0].BodyExcerpt)
	}
}

func TestNormalizeOrderIndependent(t *testing.T) {
	raw := []types.RawResult{
		{SourceQuery: "q1", URL: "https://a.example.com/1", Title: "Alpha story"},
		{SourceQuery: "q2", URL: "https://b.example.com/2", Title: "Beta story"},
		{SourceQuery: "q3", URL: "https://a.example.com/1", Title: "Alpha story again"},
	}
	reversed := []types.RawResult{raw[2], raw[1], raw[0]}

	a := Normalize(raw)
	b := Normalize(reversed)
	if len(a.Records) != len(b.Records) {
		t.Fatalf("record counts differ: %d vs %d", len(a.Records), len(b.Records))
	}
	for i := range a.Records {
		if a.Records[i].ID != b.Records[i].ID {
			t.Errorf("record %d: ID %s vs %s", i, a.Records[i].ID, b.Records[i].ID)
		}
		if a.Records[i].Title != b.Records[i].Title {
			t.Errorf("record %d: Title %q vs %q", i, a.Records[i].Title, b.Records[i].Title)
		}
	}
}

func TestNormalizeURLPartition(t *testing.T) {
	raw := []types.RawResult{
		{SourceQuery: "q1", URL: "https://a.example.com/x", Title: "Story one"},
		{SourceQuery: "q2", URL: "https://a.example.com/x", Title: "Story one again"},
		{SourceQuery: "q1", URL: "https://b.example.com/y", Title: "Story two"},
		{SourceQuery: "q3", URL: "https://c.example.com/z", Title: "Story one"}, // same normalized title, other domain
	}

	out := Normalize(raw)
	seen := map[string]int{}
	for _, rec := range out.Records {
		for _, u := range rec.SourceURLs {
			seen[u]++
		}
	}
	for u, n := range seen {
		if n != 1 {
			t.Errorf("URL %s appears in %d records, want 1", u, n)
		}
	}
	if len(seen) != 3 {
		t.Errorf("distinct URLs = %d, want 3", len(seen))
	}
}

// --- ContentHash ---

func TestContentHashStable(t *testing.T) {
	a := ContentHash("OpenAI Launches New Model!", "https://www.example.com/story?utm=x")
	b := ContentHash("openai launches   new model", "https://example.com/other-path")
	if a != b {
		t.Errorf("hashes differ: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("hash length = %d, want 12", len(a))
	}
}

func TestContentHashDomainSensitive(t *testing.T) {
	a := ContentHash("Same headline", "https://a.example.com/x")
	b := ContentHash("Same headline", "https://b.example.com/x")
	if a == b {
		t.Error("hashes for different domains should differ")
	}
}

// --- helpers ---

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OpenAI Launches New Model!", "openai launches new model"},
		{"  Spaced \t out  ", "spaced out"},
		{"GPT-5: What's Next?", "gpt5 whats next"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/path", "example.com"},
		{"https://news.example.org/a?b=c", "news.example.org"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
