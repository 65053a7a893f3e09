// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries news discovery providers and returns the day's raw
// results in a deterministic order.
package search

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

// Backend searches a single discovery provider for one topic. Each backend
// (Tavily, Google News RSS) implements this interface per the Strategy
// pattern, so tests can substitute fakes.
type Backend interface {
	Name() string
	Search(ctx context.Context, topic string, cfg types.SearchConfig) ([]types.RawResult, error)
}

// Retry wraps one provider call. The orchestrator supplies its retry policy
// through this hook; a nil Retry calls the operation once.
type Retry func(ctx context.Context, op func(context.Context) error) error

// Output holds the collected raw results and per-query diagnostics.
type Output struct {
	Results     []types.RawResult
	QueryErrors []string
}

// Collect fans queries out to every (backend, topic) pair through a bounded
// worker pool, then sorts the merged results so concurrent completion order
// never influences downstream stages. Individual query failures are
// tolerated and reported in QueryErrors; Collect returns an error only when
// every query failed and nothing was retrieved.
//
// asOf stamps FetchedAt on every result: the run's logical day, not wall
// clock, so re-runs of the same date see identical inputs.
func Collect(ctx context.Context, backends []Backend, cfg types.SearchConfig, asOf time.Time, retry Retry, w io.Writer) (Output, error) {
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}
	if len(cfg.Topics) == 0 {
		return Output{}, fmt.Errorf("no topics configured")
	}
	if retry == nil {
		retry = func(ctx context.Context, op func(context.Context) error) error {
			return op(ctx)
		}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	type query struct {
		backend Backend
		topic   string
	}
	type queryResult struct {
		results []types.RawResult
		err     error
		label   string
	}

	var queries []query
	for _, b := range backends {
		for _, t := range cfg.Topics {
			queries = append(queries, query{backend: b, topic: t})
		}
	}

	ch := make(chan queryResult, len(queries))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, q := range queries {
		wg.Add(1)
		go func(q query) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var results []types.RawResult
			err := retry(ctx, func(ctx context.Context) error {
				var searchErr error
				results, searchErr = q.backend.Search(ctx, q.topic, cfg)
				return searchErr
			})
			ch <- queryResult{
				results: results,
				err:     err,
				label:   fmt.Sprintf("%s/%s", q.backend.Name(), q.topic),
			}
		}(q)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Output
	for qr := range ch {
		if qr.err != nil {
			out.QueryErrors = append(out.QueryErrors, fmt.Sprintf("%s: %v", qr.label, qr.err))
			fmt.Fprintf(w, "warning: query %s failed: %v\n", qr.label, qr.err)
			continue
		}
		out.Results = append(out.Results, qr.results...)
	}

	// Sorted before use: the quoted first failure must not depend on
	// goroutine completion order.
	sort.Strings(out.QueryErrors)

	if len(out.Results) == 0 && len(out.QueryErrors) == len(queries) {
		return out, fmt.Errorf("all %d queries failed: %s", len(queries), out.QueryErrors[0])
	}

	for i := range out.Results {
		out.Results[i].FetchedAt = asOf
	}

	// Collect-then-sort: a fixed total order regardless of arrival order.
	sort.Slice(out.Results, func(i, j int) bool {
		a, b := out.Results[i], out.Results[j]
		if a.SourceQuery != b.SourceQuery {
			return a.SourceQuery < b.SourceQuery
		}
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		return a.Title < b.Title
	})

	return out, nil
}
