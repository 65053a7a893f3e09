// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the daily-analyst pipeline.
package types

import (
	"sort"
	"time"
)

// RawResult is a single item returned by one search query. Raw results are
// ephemeral: they exist between the search and normalize stages of a run and
// are discarded once merged into NormalizedRecords.
type RawResult struct {
	// SourceQuery is the configured topic/query that produced this result.
	SourceQuery string `json:"source_query" yaml:"source_query"`

	// URL is the result link. Not unique across queries: several queries
	// can surface the same story.
	URL string `json:"url" yaml:"url"`

	// Title is the headline as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Snippet is the provider's content excerpt.
	Snippet string `json:"snippet" yaml:"snippet"`

	// PublishedAt is the publication time if the provider reported one.
	// Zero when unknown.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// FetchedAt is when the pipeline retrieved the result. For a given run
	// this is the run's logical day, so re-runs see identical inputs.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// NormalizedRecord is the canonical record shape produced by the normalize
// stage. One record may absorb several raw results for the same story.
type NormalizedRecord struct {
	// ID is derived deterministically from the normalized title and the URL
	// domain, so the same story hashes to the same ID across runs and days.
	ID string `json:"id" yaml:"id"`

	// Title is the trimmed, whitespace-collapsed headline.
	Title string `json:"title" yaml:"title"`

	// BodyExcerpt is the longest snippet among the merged raw results.
	BodyExcerpt string `json:"body_excerpt" yaml:"body_excerpt"`

	// PublishedAt is the earliest non-zero publication time among merged
	// inputs. Zero when no input carried one; ranking then gives the
	// recency component its minimum rather than treating FetchedAt as a
	// publish time.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// FetchedAt is the earliest fetch time among merged inputs.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	// SourceURLs is the sorted union of URLs absorbed into this record.
	// Always non-empty.
	SourceURLs []string `json:"source_urls" yaml:"source_urls"`

	// TopicTags is the sorted set of source queries that surfaced this record.
	TopicTags []string `json:"topic_tags" yaml:"topic_tags"`
}

// Cluster groups NormalizedRecords judged to describe the same real-world
// story. Clusters partition the surviving records of a day: no record
// belongs to two clusters.
type Cluster struct {
	// Representative is the highest-confidence member: most source URLs,
	// then earliest publication time, then lowest ID.
	Representative NormalizedRecord `json:"representative" yaml:"representative"`

	// Members lists all records in the cluster, sorted by ID.
	Members []NormalizedRecord `json:"members" yaml:"members"`
}

// MemberIDs returns the IDs of all cluster members in sorted order.
func (c Cluster) MemberIDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

// SourceURLs returns the sorted union of source URLs across all members.
func (c Cluster) SourceURLs() []string {
	seen := make(map[string]bool)
	var urls []string
	for _, m := range c.Members {
		for _, u := range m.SourceURLs {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	sort.Strings(urls)
	return urls
}

// RankedItem is a Cluster with its computed score and 1-based rank.
type RankedItem struct {
	Cluster Cluster `json:"cluster" yaml:"cluster"`

	// Score is the weighted combination of recency, corroboration, and
	// topic match.
	Score float64 `json:"score" yaml:"score"`

	// Rank is 1-based; ties are broken by earliest publication time, then
	// lexicographically by representative ID.
	Rank int `json:"rank" yaml:"rank"`
}
