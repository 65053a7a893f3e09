// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup excludes stories already reported in the trailing window and
// clusters the survivors by story.
package dedup

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/daily-analyst/internal/normalize"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

const (
	defaultSimilarityThreshold = 0.6
	defaultPublishWindow       = 48 * time.Hour
)

// Cluster partitions the day's records into story clusters. Records whose ID
// appears in seen (the trailing-window index of prior days) are excluded
// first. Two surviving records join the same cluster when their IDs match or
// when their normalized titles exceed the similarity threshold and their
// publication times, where both are known, fall within the publish window.
//
// Grouping is union-find: similarity is treated as transitive for clustering
// even though pairwise similarity is not transitive. A~B and B~C pull A and C
// into one cluster through B. Strict pairwise equivalence would instead
// fragment obviously-identical stories.
//
// An empty result is a valid outcome, not an error. Clusters come back
// sorted by representative ID, members sorted by ID.
func Cluster(records []types.NormalizedRecord, seen map[string]bool, cfg types.DedupConfig) []types.Cluster {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	window := cfg.PublishWindow
	if window <= 0 {
		window = defaultPublishWindow
	}

	var survivors []types.NormalizedRecord
	for _, r := range records {
		if !seen[r.ID] {
			survivors = append(survivors, r)
		}
	}
	// Sort before grouping so clustering is deterministic.
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].ID < survivors[j].ID
	})

	tokens := make([][]string, len(survivors))
	for i, r := range survivors {
		tokens[i] = titleTokens(r.Title)
	}

	uf := newUnionFind(len(survivors))
	for i := 0; i < len(survivors); i++ {
		for j := i + 1; j < len(survivors); j++ {
			if similar(survivors[i], survivors[j], tokens[i], tokens[j], threshold, window) {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]types.NormalizedRecord)
	for i, r := range survivors {
		root := uf.find(i)
		groups[root] = append(groups[root], r)
	}

	var clusters []types.Cluster
	for _, members := range groups {
		// Members are already ID-sorted: survivors were sorted and group
		// assembly preserves that order.
		clusters = append(clusters, types.Cluster{
			Representative: representative(members),
			Members:        members,
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Representative.ID < clusters[j].Representative.ID
	})
	return clusters
}

// similar reports whether two records describe the same story: identical ID
// (exact duplicate) or title similarity above the threshold with compatible
// publication times. When either record lacks a publication time the time
// check is vacuous and similarity alone decides.
func similar(a, b types.NormalizedRecord, at, bt []string, threshold float64, window time.Duration) bool {
	if a.ID == b.ID {
		return true
	}
	if jaccard(at, bt) < threshold {
		return false
	}
	if !a.PublishedAt.IsZero() && !b.PublishedAt.IsZero() {
		gap := a.PublishedAt.Sub(b.PublishedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap > window {
			return false
		}
	}
	return true
}

// representative picks the highest-confidence member: most source URLs,
// then earliest known publication time, then lowest ID.
func representative(members []types.NormalizedRecord) types.NormalizedRecord {
	best := members[0]
	for _, m := range members[1:] {
		switch {
		case len(m.SourceURLs) != len(best.SourceURLs):
			if len(m.SourceURLs) > len(best.SourceURLs) {
				best = m
			}
		case publishedBefore(m, best):
			best = m
		}
	}
	return best
}

// publishedBefore orders known publication times ascending, unknown last,
// with ID as the final tiebreak.
func publishedBefore(a, b types.NormalizedRecord) bool {
	switch {
	case a.PublishedAt.IsZero() && b.PublishedAt.IsZero():
		return a.ID < b.ID
	case a.PublishedAt.IsZero():
		return false
	case b.PublishedAt.IsZero():
		return true
	case !a.PublishedAt.Equal(b.PublishedAt):
		return a.PublishedAt.Before(b.PublishedAt)
	default:
		return a.ID < b.ID
	}
}

// titleTokens returns the sorted unique tokens of a normalized title.
func titleTokens(title string) []string {
	fields := strings.Fields(normalize.NormalizeTitle(title))
	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// jaccard computes |a ∩ b| / |a ∪ b| over two sorted token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// unionFind is a plain disjoint-set over indices with path compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return
	}
	// Attach the larger root to the smaller so roots stay deterministic.
	if ri < rj {
		u.parent[rj] = ri
	} else {
		u.parent[ri] = rj
	}
}
