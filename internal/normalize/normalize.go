// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts heterogeneous raw search results into canonical
// records, merging raw results that describe the same story.
package normalize

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

// Output holds the canonical records plus per-run diagnostics.
type Output struct {
	Records []types.NormalizedRecord

	// Dropped counts malformed raw results (missing URL or title). Not a
	// fatal condition; the orchestrator surfaces the count.
	Dropped int
}

// Normalize merges raw results into NormalizedRecords. Two raw results merge
// when they share a URL or when their content hash (normalized title plus URL
// domain) matches. Inputs are sorted before grouping so output never depends
// on arrival order. Records come back sorted by ID.
func Normalize(raw []types.RawResult) Output {
	sorted := make([]types.RawResult, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.SourceQuery < b.SourceQuery
	})

	var out Output
	records := make(map[string]*types.NormalizedRecord) // id → record
	byURL := make(map[string]string)                    // url → id

	for _, r := range sorted {
		title := collapseSpace(r.Title)
		u := strings.TrimSpace(r.URL)
		if title == "" || u == "" {
			out.Dropped++
			continue
		}

		id := ContentHash(title, u)

		// URL-keyed merge first: a URL belongs to exactly one record.
		if existingID, ok := byURL[u]; ok {
			id = existingID
		}

		rec, ok := records[id]
		if !ok {
			rec = &types.NormalizedRecord{
				ID:        id,
				Title:     title,
				FetchedAt: r.FetchedAt,
			}
			records[id] = rec
		}
		mergeRaw(rec, r, title, u)
		byURL[u] = id
	}

	for _, rec := range records {
		sort.Strings(rec.SourceURLs)
		sort.Strings(rec.TopicTags)
		out.Records = append(out.Records, *rec)
	}
	sort.Slice(out.Records, func(i, j int) bool {
		return out.Records[i].ID < out.Records[j].ID
	})
	return out
}

// mergeRaw folds one raw result into a record: union of source URLs and
// topic tags, earliest timestamps, longest excerpt.
func mergeRaw(rec *types.NormalizedRecord, r types.RawResult, title, u string) {
	if !containsString(rec.SourceURLs, u) {
		rec.SourceURLs = append(rec.SourceURLs, u)
	}
	if tag := collapseSpace(r.SourceQuery); tag != "" && !containsString(rec.TopicTags, tag) {
		rec.TopicTags = append(rec.TopicTags, tag)
	}
	if snippet := collapseSpace(r.Snippet); len(snippet) > len(rec.BodyExcerpt) {
		rec.BodyExcerpt = snippet
	}
	if !r.PublishedAt.IsZero() && (rec.PublishedAt.IsZero() || r.PublishedAt.Before(rec.PublishedAt)) {
		rec.PublishedAt = r.PublishedAt
	}
	if !r.FetchedAt.IsZero() && (rec.FetchedAt.IsZero() || r.FetchedAt.Before(rec.FetchedAt)) {
		rec.FetchedAt = r.FetchedAt
	}
	if len(title) < len(rec.Title) {
		// Prefer the shortest title variant; longer ones tend to carry
		// publisher suffixes.
		rec.Title = title
	}
}

// ContentHash derives a record ID from the normalized title and the URL's
// domain. Stable across runs for the same underlying story, which is what
// makes cross-day duplicate exclusion possible. The ID is the first 12 hex
// characters of SHA-256(normalized title + "\n" + domain).
func ContentHash(title, rawURL string) string {
	h := sha256.New()
	h.Write([]byte(NormalizeTitle(title)))
	h.Write([]byte("\n"))
	h.Write([]byte(Domain(rawURL)))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with whitespace collapsed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Domain extracts the lowercased host from a URL, dropping a leading "www.".
// Falls back to the raw string when parsing fails.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
