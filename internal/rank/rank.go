// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders story clusters by relevance and recency and selects
// the top K for assembly.
package rank

import (
	"math"
	"sort"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

const (
	defaultTopK     = 10
	defaultHalfLife = 24 * time.Hour
)

// Rank scores each cluster and returns the top K as RankedItems, highest
// score first. The order is a deterministic total order: score descending,
// then publication time ascending with unknown times last, then
// representative ID. asOf is the run's logical day, so identical inputs
// rank identically on re-runs.
func Rank(clusters []types.Cluster, cfg types.RankConfig, asOf time.Time) []types.RankedItem {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	items := make([]types.RankedItem, 0, len(clusters))
	for _, c := range clusters {
		items = append(items, types.RankedItem{
			Cluster: c,
			Score:   score(c, cfg, asOf),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ap, bp := a.Cluster.Representative.PublishedAt, b.Cluster.Representative.PublishedAt
		switch {
		case ap.IsZero() && !bp.IsZero():
			return false
		case !ap.IsZero() && bp.IsZero():
			return true
		case !ap.Equal(bp):
			return ap.Before(bp)
		}
		return a.Cluster.Representative.ID < b.Cluster.Representative.ID
	})

	if len(items) > topK {
		items = items[:topK]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}

// score combines recency, corroboration, and topic match with the
// configured weights.
func score(c types.Cluster, cfg types.RankConfig, asOf time.Time) float64 {
	wr, wc, wt := cfg.RecencyWeight, cfg.CorroborationWeight, cfg.TopicWeight
	if wr == 0 && wc == 0 && wt == 0 {
		wr, wc, wt = 0.5, 0.3, 0.2
	}
	return wr*recency(c, cfg, asOf) + wc*corroboration(c) + wt*topicMatch(c, cfg.FocusTopics)
}

// recency decays exponentially with the representative's age at the run's
// logical day. Clusters with no known publication time get the minimum
// component; FetchedAt is never treated as a publish time.
func recency(c types.Cluster, cfg types.RankConfig, asOf time.Time) float64 {
	published := c.Representative.PublishedAt
	if published.IsZero() {
		return 0
	}
	halfLife := cfg.RecencyHalfLife
	if halfLife <= 0 {
		halfLife = defaultHalfLife
	}
	age := asOf.Sub(published)
	if age <= 0 {
		return 1
	}
	return math.Exp2(-float64(age) / float64(halfLife))
}

// corroboration rewards independent sourcing: 0 for a single URL,
// approaching 1 as distinct source URLs accumulate.
func corroboration(c types.Cluster) float64 {
	n := len(c.SourceURLs())
	if n <= 1 {
		return 0
	}
	return 1 - 1/float64(n)
}

// topicMatch is the fraction of focus topics covered by the cluster's tags.
// With no focus configured every cluster gets the full component, keeping
// the weight neutral.
func topicMatch(c types.Cluster, focus []string) float64 {
	if len(focus) == 0 {
		return 1
	}
	tags := make(map[string]bool)
	for _, m := range c.Members {
		for _, t := range m.TopicTags {
			tags[t] = true
		}
	}
	matched := 0
	for _, f := range focus {
		if tags[f] {
			matched++
		}
	}
	return float64(matched) / float64(len(focus))
}
