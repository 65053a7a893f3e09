// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"testing"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

var asOf = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func cluster(id string, published time.Time, urls ...string) types.Cluster {
	rep := types.NormalizedRecord{ID: id, Title: "Story " + id, PublishedAt: published, SourceURLs: urls}
	return types.Cluster{Representative: rep, Members: []types.NormalizedRecord{rep}}
}

// --- Rank ---

func TestRankFresherScoresHigher(t *testing.T) {
	fresh := cluster("aaa", asOf.Add(-1*time.Hour), "https://a.example.com/1")
	stale := cluster("bbb", asOf.Add(-72*time.Hour), "https://b.example.com/1")

	items := Rank([]types.Cluster{stale, fresh}, types.RankConfig{}, asOf)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Cluster.Representative.ID != "aaa" {
		t.Errorf("top item = %s, want aaa", items[0].Cluster.Representative.ID)
	}
	if items[0].Rank != 1 || items[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", items[0].Rank, items[1].Rank)
	}
}

func TestRankCorroborationBreaksRecencyTie(t *testing.T) {
	when := asOf.Add(-2 * time.Hour)
	single := cluster("aaa", when, "https://a.example.com/1")
	multi := cluster("bbb", when, "https://b.example.com/1", "https://c.example.com/1", "https://d.example.com/1")

	items := Rank([]types.Cluster{single, multi}, types.RankConfig{}, asOf)
	if items[0].Cluster.Representative.ID != "bbb" {
		t.Errorf("top item = %s, want bbb (more sources)", items[0].Cluster.Representative.ID)
	}
}

func TestRankUnknownTimeSortsLast(t *testing.T) {
	known := cluster("bbb", asOf.Add(-200*time.Hour), "https://b.example.com/1")
	unknown := cluster("aaa", time.Time{}, "https://a.example.com/1")

	items := Rank([]types.Cluster{unknown, known}, types.RankConfig{}, asOf)
	if items[len(items)-1].Cluster.Representative.ID != "aaa" {
		t.Errorf("last item = %s, want aaa (unknown time)", items[len(items)-1].Cluster.Representative.ID)
	}
}

func TestRankTiebreakByID(t *testing.T) {
	when := asOf.Add(-1 * time.Hour)
	a := cluster("aaa", when, "https://a.example.com/1")
	b := cluster("bbb", when, "https://b.example.com/1")

	items := Rank([]types.Cluster{b, a}, types.RankConfig{}, asOf)
	if items[0].Cluster.Representative.ID != "aaa" {
		t.Errorf("top item = %s, want aaa (ID tiebreak)", items[0].Cluster.Representative.ID)
	}
}

func TestRankCutsTopK(t *testing.T) {
	var clusters []types.Cluster
	for _, id := range []string{"aaa", "bbb", "ccc", "ddd", "eee"} {
		clusters = append(clusters, cluster(id, asOf.Add(-1*time.Hour), "https://"+id+".example.com/1"))
	}

	items := Rank(clusters, types.RankConfig{TopK: 3}, asOf)
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	for i, item := range items {
		if item.Rank != i+1 {
			t.Errorf("item %d rank = %d, want %d", i, item.Rank, i+1)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	if got := Rank(nil, types.RankConfig{}, asOf); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRankDeterministic(t *testing.T) {
	clusters := []types.Cluster{
		cluster("ccc", asOf.Add(-3*time.Hour), "https://c.example.com/1"),
		cluster("aaa", asOf.Add(-1*time.Hour), "https://a.example.com/1"),
		cluster("bbb", time.Time{}, "https://b.example.com/1"),
	}
	reversed := []types.Cluster{clusters[2], clusters[1], clusters[0]}

	a := Rank(clusters, types.RankConfig{}, asOf)
	b := Rank(reversed, types.RankConfig{}, asOf)
	for i := range a {
		if a[i].Cluster.Representative.ID != b[i].Cluster.Representative.ID {
			t.Errorf("position %d: %s vs %s", i, a[i].Cluster.Representative.ID, b[i].Cluster.Representative.ID)
		}
		if a[i].Score != b[i].Score {
			t.Errorf("position %d: score %f vs %f", i, a[i].Score, b[i].Score)
		}
	}
}

// --- score components ---

func TestRecency(t *testing.T) {
	cfg := types.RankConfig{RecencyHalfLife: 24 * time.Hour}
	tests := []struct {
		name      string
		published time.Time
		want      float64
	}{
		{"unknown", time.Time{}, 0},
		{"future clamps to one", asOf.Add(2 * time.Hour), 1},
		{"one half-life", asOf.Add(-24 * time.Hour), 0.5},
		{"two half-lives", asOf.Add(-48 * time.Hour), 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cluster("aaa", tt.published, "https://a.example.com/1")
			got := recency(c, cfg, asOf)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("recency = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCorroboration(t *testing.T) {
	one := cluster("aaa", asOf, "https://a.example.com/1")
	if got := corroboration(one); got != 0 {
		t.Errorf("single source = %f, want 0", got)
	}
	four := cluster("bbb", asOf, "https://a.example.com/1", "https://b.example.com/1", "https://c.example.com/1", "https://d.example.com/1")
	if got := corroboration(four); got != 0.75 {
		t.Errorf("four sources = %f, want 0.75", got)
	}
}

func TestTopicMatch(t *testing.T) {
	c := cluster("aaa", asOf, "https://a.example.com/1")
	c.Members[0].TopicTags = []string{"OpenAI", "AI models"}

	if got := topicMatch(c, nil); got != 1 {
		t.Errorf("no focus = %f, want 1", got)
	}
	if got := topicMatch(c, []string{"OpenAI", "robotics"}); got != 0.5 {
		t.Errorf("half focus = %f, want 0.5", got)
	}
	if got := topicMatch(c, []string{"robotics"}); got != 0 {
		t.Errorf("no match = %f, want 0", got)
	}
}
