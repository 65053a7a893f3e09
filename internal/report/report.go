// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report aggregates a month of ledger data into a performance
// summary: topic and source distributions plus the published-article list.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/daily-analyst/internal/ledger"
	"github.com/pdiddy/daily-analyst/internal/normalize"
	"github.com/pdiddy/daily-analyst/internal/publish"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

const topEntries = 10

// StatsSource optionally supplies readership numbers from the publishing
// platform. A nil source produces a report without them.
type StatsSource interface {
	ArticleStats(ctx context.Context, beginDate, endDate string) ([]publish.ArticleStat, error)
}

// Summary holds the aggregated numbers behind a monthly report.
type Summary struct {
	Month          string // YYYY-MM
	RecordCount    int
	PublishedCount int
	FailedCount    int
	Topics         []Count
	Sources        []Count
	Articles       []types.Article
	Stats          []publish.ArticleStat
}

// Count is one entry of a ranked distribution.
type Count struct {
	Name string
	N    int
}

// Generate aggregates the ledger for year/month and renders a Markdown
// report to w. Publisher stats are merged when stats is non-nil; a stats
// failure degrades to a warning rather than losing the report.
func Generate(ctx context.Context, store *ledger.Store, year, month int, stats StatsSource, w io.Writer) (Summary, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	from := first.Format(types.DateFormat)
	to := first.AddDate(0, 1, -1).Format(types.DateFormat)

	records, err := store.SeenBetween(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	articles, err := store.ArticlesBetween(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	runs, err := store.RunsBetween(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Month:       first.Format("2006-01"),
		RecordCount: len(records),
		Topics:      distribution(records, func(r ledger.SeenRecord) []string { return r.Topics }),
		Sources:     distribution(records, domains),
	}
	for _, art := range articles {
		if art.Status == types.ArticlePublished {
			s.PublishedCount++
			s.Articles = append(s.Articles, art)
		}
	}
	for _, run := range runs {
		if run.Stage == types.StageFailed {
			s.FailedCount++
		}
	}

	if stats != nil {
		list, err := stats.ArticleStats(ctx, from, to)
		if err != nil {
			fmt.Fprintf(w, "warning: publisher stats unavailable: %v\n", err)
		} else {
			s.Stats = list
		}
	}

	render(s, w)
	return s, nil
}

// distribution counts occurrences of keys extracted from each record and
// returns the top entries, count descending with name as tiebreak.
func distribution(records []ledger.SeenRecord, keys func(ledger.SeenRecord) []string) []Count {
	counts := make(map[string]int)
	for _, r := range records {
		for _, k := range keys(r) {
			if k != "" {
				counts[k]++
			}
		}
	}
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topEntries {
		out = out[:topEntries]
	}
	return out
}

func domains(r ledger.SeenRecord) []string {
	var ds []string
	for _, u := range r.SourceURLs {
		ds = append(ds, normalize.Domain(u))
	}
	return ds
}

// render writes the Markdown report.
func render(s Summary, w io.Writer) {
	fmt.Fprintf(w, "# Monthly Reading Report — %s\n\n", s.Month)

	fmt.Fprintf(w, "## Overview\n\n")
	fmt.Fprintf(w, "- Stories collected: %d\n", s.RecordCount)
	fmt.Fprintf(w, "- Articles published: %d\n", s.PublishedCount)
	if s.FailedCount > 0 {
		fmt.Fprintf(w, "- Failed runs: %d\n", s.FailedCount)
	}
	fmt.Fprintf(w, "- Topics covered: %d\n", len(s.Topics))
	fmt.Fprintf(w, "- Distinct sources: %d\n\n", len(s.Sources))

	table(w, "Hot Topics", "Topic", s.Topics)
	table(w, "Top Sources", "Source", s.Sources)

	fmt.Fprintf(w, "## Published Articles\n\n")
	if len(s.Articles) == 0 {
		fmt.Fprintf(w, "None this month.\n\n")
	}
	for _, art := range s.Articles {
		fmt.Fprintf(w, "- %s: %s (%d sections)\n", art.Date, art.Title, len(art.Sections))
	}
	if len(s.Articles) > 0 {
		fmt.Fprintln(w)
	}

	if len(s.Stats) > 0 {
		fmt.Fprintf(w, "## Readership\n\n")
		fmt.Fprintf(w, "| Date | Readers | Reads | Shares |\n|:---|---:|---:|---:|\n")
		for _, st := range s.Stats {
			fmt.Fprintf(w, "| %s | %d | %d | %d |\n", st.RefDate, st.PageReadUser, st.PageReadCount, st.ShareCount)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "%s saw %d published daily briefings drawn from %d collected stories.\n",
		s.Month, s.PublishedCount, s.RecordCount)
	if len(s.Topics) > 0 {
		names := make([]string, 0, 3)
		for i, t := range s.Topics {
			if i == 3 {
				break
			}
			names = append(names, t.Name)
		}
		fmt.Fprintf(w, "Focus of the month: %s.\n", strings.Join(names, ", "))
	}
}

// table renders one ranked Markdown table, skipped when empty.
func table(w io.Writer, heading, label string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "## %s\n\n", heading)
	fmt.Fprintf(w, "| Rank | %s | Stories |\n|:---:|:---|---:|\n", label)
	for i, c := range counts {
		fmt.Fprintf(w, "| %d | %s | %d |\n", i+1, c.Name, c.N)
	}
	fmt.Fprintln(w)
}
