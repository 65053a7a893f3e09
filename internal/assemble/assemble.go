// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble turns the day's top-ranked clusters into a publishable
// article by summarizing each cluster's representative record.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

// Summarizer is the external text-generation collaborator. Implementations
// summarize one record; quality is the collaborator's concern, the contract
// here is only non-empty output or an error.
type Summarizer interface {
	Summarize(ctx context.Context, rec types.NormalizedRecord) (string, error)
}

// Retry wraps one summarization call with the orchestrator's retry policy.
// A nil Retry calls the operation once.
type Retry func(ctx context.Context, op func(context.Context) error) error

// ErrAssemblyFailed means every section failed to summarize and no article
// was produced. Fatal for the run.
var ErrAssemblyFailed = errors.New("no section could be summarized")

// Assemble summarizes each ranked item through a bounded worker pool and
// composes the final Article, sections ordered by rank. A failed or empty
// summary skips that section and is logged as a partial failure; only when
// every item fails does Assemble return ErrAssemblyFailed. Every section
// keeps its originating source URLs; attribution is never fabricated.
func Assemble(ctx context.Context, date string, items []types.RankedItem, s Summarizer, concurrency int, retry Retry, w io.Writer) (*types.Article, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("assemble: %w", ErrAssemblyFailed)
	}
	if retry == nil {
		retry = func(ctx context.Context, op func(context.Context) error) error {
			return op(ctx)
		}
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	summaries := make([]string, len(items))
	failures := make([]error, len(items))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rec := items[i].Cluster.Representative
			var summary string
			err := retry(ctx, func(ctx context.Context) error {
				var sumErr error
				summary, sumErr = s.Summarize(ctx, rec)
				return sumErr
			})
			if err == nil && strings.TrimSpace(summary) == "" {
				err = fmt.Errorf("empty summary")
			}
			summaries[i], failures[i] = summary, err
		}(i)
	}
	wg.Wait()

	// Collect in rank order, which the items slice already carries; worker
	// completion order is irrelevant.
	var sections []types.Section
	failed := 0
	for i, item := range items {
		if failures[i] != nil {
			failed++
			fmt.Fprintf(w, "warning: skipping rank %d (%s): %v\n",
				item.Rank, item.Cluster.Representative.Title, failures[i])
			continue
		}
		sections = append(sections, types.Section{
			Title:      item.Cluster.Representative.Title,
			Summary:    strings.TrimSpace(summaries[i]),
			SourceURLs: item.Cluster.SourceURLs(),
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("assemble: all %d items failed: %w", len(items), ErrAssemblyFailed)
	}
	if failed > 0 {
		fmt.Fprintf(w, "assembled %d of %d sections (%d failed)\n", len(sections), len(items), failed)
	}

	art := &types.Article{
		ID:       "article-" + date,
		Date:     date,
		Title:    "AI Daily Briefing — " + date,
		Sections: sections,
		Status:   types.ArticleDraft,
	}
	art.Body = composeBody(art, len(items))
	return art, nil
}

// composeBody renders the article Markdown: headline, numbered sections
// with summary and source list, and a closing stats line.
func composeBody(art *types.Article, selected int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", art.Title)
	fmt.Fprintf(&b, "## Today's Top Stories\n\n")

	for i, sec := range art.Sections {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, sec.Title)
		fmt.Fprintf(&b, "%s\n\n", sec.Summary)
		b.WriteString("**Sources:**\n")
		for _, u := range sec.SourceURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n---\n\n")
	}

	fmt.Fprintf(&b, "## Wrap-up\n\n")
	fmt.Fprintf(&b, "%d stories made today's selection; the %d above were summarized successfully.\n\n",
		selected, len(art.Sections))
	fmt.Fprintf(&b, "*Generated automatically | %s*\n", art.Date)
	return b.String()
}
