// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

func rec(id, title string, urls ...string) types.NormalizedRecord {
	return types.NormalizedRecord{ID: id, Title: title, SourceURLs: urls}
}

func testCfg() types.DedupConfig {
	return types.DedupConfig{
		WindowDays:          7,
		SimilarityThreshold: 0.6,
		PublishWindow:       48 * time.Hour,
	}
}

// --- Cluster ---

func TestClusterExcludesSeen(t *testing.T) {
	records := []types.NormalizedRecord{
		rec("aaa", "OpenAI launches new model", "https://a.example.com/1"),
		rec("bbb", "Chip startup raises funding", "https://b.example.com/2"),
	}
	seen := map[string]bool{"aaa": true}

	clusters := Cluster(records, seen, testCfg())
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	if clusters[0].Representative.ID != "bbb" {
		t.Errorf("representative = %s, want bbb", clusters[0].Representative.ID)
	}
}

func TestClusterAllSeenIsEmpty(t *testing.T) {
	records := []types.NormalizedRecord{
		rec("aaa", "Story one", "https://a.example.com/1"),
	}
	seen := map[string]bool{"aaa": true}

	clusters := Cluster(records, seen, testCfg())
	if len(clusters) != 0 {
		t.Errorf("len(clusters) = %d, want 0", len(clusters))
	}
}

func TestClusterSimilarTitles(t *testing.T) {
	records := []types.NormalizedRecord{
		rec("aaa", "OpenAI launches new flagship model", "https://a.example.com/1"),
		rec("bbb", "OpenAI launches new flagship model today", "https://b.example.com/2"),
		rec("ccc", "Unrelated chip factory opens in Arizona", "https://c.example.com/3"),
	}

	clusters := Cluster(records, nil, testCfg())
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Errorf("first cluster has %d members, want 2", len(clusters[0].Members))
	}
}

func TestClusterTransitiveGrouping(t *testing.T) {
	// A resembles B and B resembles C; all three land in one cluster even
	// if A and C alone would not clear the threshold.
	records := []types.NormalizedRecord{
		rec("aaa", "alpha beta gamma delta epsilon", "https://a.example.com/1"),
		rec("bbb", "alpha beta gamma delta zeta", "https://b.example.com/2"),
		rec("ccc", "alpha beta gamma zeta eta", "https://c.example.com/3"),
	}

	clusters := Cluster(records, nil, testCfg())
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	if len(clusters[0].Members) != 3 {
		t.Errorf("members = %d, want 3", len(clusters[0].Members))
	}
}

func TestClusterPublishWindowSeparates(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := rec("aaa", "Company announces quarterly results", "https://a.example.com/1")
	a.PublishedAt = base
	b := rec("bbb", "Company announces quarterly results", "https://b.example.com/2")
	b.PublishedAt = base.Add(90 * 24 * time.Hour) // a different quarter

	clusters := Cluster([]types.NormalizedRecord{a, b}, nil, testCfg())
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2", len(clusters))
	}
}

func TestClusterUnknownTimeIsVacuous(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := rec("aaa", "Company announces quarterly results", "https://a.example.com/1")
	a.PublishedAt = base
	b := rec("bbb", "Company announces quarterly results", "https://b.example.com/2")
	// b has no publication time; similarity alone decides.

	clusters := Cluster([]types.NormalizedRecord{a, b}, nil, testCfg())
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
}

func TestClusterEmptyInput(t *testing.T) {
	if got := Cluster(nil, nil, testCfg()); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestClusterDeterministicOrder(t *testing.T) {
	records := []types.NormalizedRecord{
		rec("ccc", "Gamma story", "https://c.example.com/3"),
		rec("aaa", "Alpha story", "https://a.example.com/1"),
		rec("bbb", "Beta story", "https://b.example.com/2"),
	}

	clusters := Cluster(records, nil, testCfg())
	if len(clusters) != 3 {
		t.Fatalf("len(clusters) = %d, want 3", len(clusters))
	}
	for i, want := range []string{"aaa", "bbb", "ccc"} {
		if clusters[i].Representative.ID != want {
			t.Errorf("cluster %d representative = %s, want %s", i, clusters[i].Representative.ID, want)
		}
	}
}

// --- representative ---

func TestRepresentativeMostSources(t *testing.T) {
	a := rec("aaa", "Story", "https://a.example.com/1")
	b := rec("bbb", "Story", "https://b.example.com/1", "https://b.example.com/2")

	got := representative([]types.NormalizedRecord{a, b})
	if got.ID != "bbb" {
		t.Errorf("representative = %s, want bbb", got.ID)
	}
}

func TestRepresentativeEarliestPublished(t *testing.T) {
	base := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	a := rec("aaa", "Story", "https://a.example.com/1")
	a.PublishedAt = base.Add(2 * time.Hour)
	b := rec("bbb", "Story", "https://b.example.com/1")
	b.PublishedAt = base
	c := rec("ccc", "Story", "https://c.example.com/1") // unknown, ranks last

	got := representative([]types.NormalizedRecord{a, b, c})
	if got.ID != "bbb" {
		t.Errorf("representative = %s, want bbb", got.ID)
	}
}

// --- jaccard ---

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"half", []string{"a", "b", "c"}, []string{"b", "c", "d"}, 0.5},
		{"empty", nil, []string{"a"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(tt.a, tt.b); got != tt.want {
				t.Errorf("jaccard = %f, want %f", got, tt.want)
			}
		})
	}
}
