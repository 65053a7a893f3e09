// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the daily discovery-to-article stages and owns
// the retry policy for external collaborators. It is the only component
// that decides retry versus abort versus surface-to-caller.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/pdiddy/daily-analyst/internal/assemble"
	"github.com/pdiddy/daily-analyst/internal/dedup"
	"github.com/pdiddy/daily-analyst/internal/ledger"
	"github.com/pdiddy/daily-analyst/internal/normalize"
	"github.com/pdiddy/daily-analyst/internal/publish"
	"github.com/pdiddy/daily-analyst/internal/rank"
	"github.com/pdiddy/daily-analyst/internal/search"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

// Pipeline wires the stages together for one publisher account. All
// collaborators are injected at construction; nothing is read ambiently
// mid-run, so tests substitute doubles without process-wide mutation.
type Pipeline struct {
	cfg        types.PipelineConfig
	store      *ledger.Store
	backends   []search.Backend
	summarizer assemble.Summarizer
	publisher  publish.Publisher
	out        io.Writer
}

// New builds a pipeline. publisher may be nil only when every run uses
// Options.SkipPublish.
func New(cfg types.PipelineConfig, store *ledger.Store, backends []search.Backend, summarizer assemble.Summarizer, publisher publish.Publisher, out io.Writer) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		backends:   backends,
		summarizer: summarizer,
		publisher:  publisher,
		out:        out,
	}
}

// Options adjust a single invocation.
type Options struct {
	// Force clears all state for the date first, intentionally bypassing
	// the idempotence guarantee.
	Force bool

	// SkipPublish stops after assembly, leaving the article a draft.
	SkipPublish bool
}

// Result reports what a run produced.
type Result struct {
	Date    string
	Stage   types.Stage
	Article *types.Article

	// Dropped counts malformed raw results tolerated during normalization.
	Dropped int

	// Resumed is true when a prior invocation's persisted stage was reused.
	Resumed bool
}

// normalizedArtifact is the persisted output of the normalize stage.
type normalizedArtifact struct {
	Records []types.NormalizedRecord `json:"records"`
	Dropped int                      `json:"dropped"`
}

// Run executes the daily pipeline for one logical date (YYYY-MM-DD). Each
// completed stage is persisted before the next begins; re-invocation for
// the same date resumes at the last persisted stage. A date already
// published returns the stored article unchanged with zero provider calls.
func (p *Pipeline) Run(ctx context.Context, date string, opts Options) (*Result, error) {
	day, err := time.Parse(types.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	asOf := day.UTC()

	unlock := p.store.Lock(date)
	defer unlock()

	rec, err := p.store.Run(ctx, date)
	if err != nil {
		return nil, err
	}
	if opts.Force && rec != nil {
		fmt.Fprintf(p.out, "force: clearing prior state for %s (was %s)\n", date, rec.Stage)
		if err := p.store.ClearRun(ctx, date); err != nil {
			return nil, err
		}
		rec = nil
	}
	if rec != nil && rec.Stage == types.StagePublished {
		art, err := p.store.ArticleByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		if art == nil {
			return nil, fmt.Errorf("run %s is published but has no stored article: %w", date, ledger.ErrCorrupt)
		}
		fmt.Fprintf(p.out, "%s already published (delivery %s); nothing to do\n", date, art.DeliveryID)
		return &Result{Date: date, Stage: types.StagePublished, Article: art, Resumed: true}, nil
	}
	if rec != nil && rec.Stage == types.StageFailed {
		return nil, fmt.Errorf("run %s previously failed (%s); re-run with --force", date, rec.LastError)
	}

	resumed := rec != nil && rec.Stage != types.StageNotStarted
	if rec, err = p.store.BeginAttempt(ctx, date); err != nil {
		return nil, err
	}
	if resumed {
		fmt.Fprintf(p.out, "resuming %s from stage %s (attempt %d)\n", date, rec.Stage, rec.AttemptCount)
	}

	// Every failure path below writes a terminal marker before returning,
	// except ledger corruption, which is left untouched for manual repair.
	fail := func(err error) (*Result, error) {
		if markErr := p.store.MarkFailed(ctx, date, err.Error()); markErr != nil {
			return nil, fmt.Errorf("%v (additionally: %v)", err, markErr)
		}
		fmt.Fprintf(p.out, "run %s failed: %v\n", date, err)
		return nil, err
	}

	// Stage: normalize.
	var norm normalizedArtifact
	if rec.Stage.Reached(types.StageNormalized) {
		if err := p.loadArtifact(ctx, date, types.StageNormalized, &norm); err != nil {
			return nil, err
		}
	} else {
		searchOut, err := search.Collect(ctx, p.backends, p.cfg.Search, asOf, p.retry, p.out)
		if err != nil {
			return fail(err)
		}
		out := normalize.Normalize(searchOut.Results)
		norm = normalizedArtifact{Records: out.Records, Dropped: out.Dropped}
		if out.Dropped > 0 {
			fmt.Fprintf(p.out, "dropped %d malformed results\n", out.Dropped)
		}
		if len(searchOut.Results) > 0 && len(norm.Records) == 0 {
			return fail(fmt.Errorf("all %d raw results were malformed", len(searchOut.Results)))
		}
		if err := p.persistStage(ctx, date, types.StageNormalized, norm, norm.Records); err != nil {
			return fail(err)
		}
		fmt.Fprintf(p.out, "normalized %d results into %d records\n", len(searchOut.Results), len(norm.Records))
	}

	// Stage: deduplicate.
	var clusters []types.Cluster
	if rec.Stage.Reached(types.StageDeduplicated) {
		if err := p.loadArtifact(ctx, date, types.StageDeduplicated, &clusters); err != nil {
			return nil, err
		}
	} else {
		seen, err := p.store.SeenBefore(ctx, date, p.cfg.Dedup.WindowDays)
		if err != nil {
			return fail(err)
		}
		clusters = dedup.Cluster(norm.Records, seen, p.cfg.Dedup)
		if err := p.persistStage(ctx, date, types.StageDeduplicated, clusters, nil); err != nil {
			return fail(err)
		}
		fmt.Fprintf(p.out, "clustered %d records into %d stories (%d seen before)\n",
			len(norm.Records), len(clusters), len(norm.Records)-memberCount(clusters))
	}

	// Stage: rank.
	var items []types.RankedItem
	if rec.Stage.Reached(types.StageRanked) {
		if err := p.loadArtifact(ctx, date, types.StageRanked, &items); err != nil {
			return nil, err
		}
	} else {
		items = rank.Rank(clusters, p.cfg.Rank, asOf)
		if err := p.persistStage(ctx, date, types.StageRanked, items, nil); err != nil {
			return fail(err)
		}
		fmt.Fprintf(p.out, "selected top %d of %d stories\n", len(items), len(clusters))
	}
	if len(items) == 0 {
		if p.cfg.RequireOutput {
			return fail(fmt.Errorf("no stories survived selection for %s", date))
		}
		fmt.Fprintf(p.out, "empty day: no article produced for %s\n", date)
		return &Result{Date: date, Stage: types.StageRanked, Dropped: norm.Dropped, Resumed: resumed}, nil
	}

	// Stage: assemble.
	var art *types.Article
	if rec.Stage.Reached(types.StageAssembled) {
		if art, err = p.store.ArticleByDate(ctx, date); err != nil {
			return nil, err
		}
		if art == nil {
			return nil, fmt.Errorf("run %s is assembled but has no stored article: %w", date, ledger.ErrCorrupt)
		}
	} else {
		art, err = assemble.Assemble(ctx, date, items, p.summarizer, p.cfg.Summary.Concurrency, p.retry, p.out)
		if err != nil {
			return fail(err)
		}
		if err := p.store.SaveArticle(ctx, art); err != nil {
			return fail(err)
		}
		if err := p.store.AdvanceStage(ctx, date, types.StageAssembled); err != nil {
			return fail(err)
		}
		fmt.Fprintf(p.out, "assembled article with %d sections\n", len(art.Sections))
	}

	// Stage: publish.
	if opts.SkipPublish {
		fmt.Fprintf(p.out, "skip-publish: article for %s left as draft\n", date)
		return &Result{Date: date, Stage: types.StageAssembled, Article: art, Dropped: norm.Dropped, Resumed: resumed}, nil
	}
	if p.publisher == nil {
		return fail(fmt.Errorf("no publisher configured for %s", date))
	}

	var receipt *publish.Receipt
	err = p.retry(ctx, func(ctx context.Context) error {
		var pubErr error
		receipt, pubErr = p.publisher.Publish(ctx, art)
		return pubErr
	})
	if err != nil {
		art.Status = types.ArticleFailed
		if saveErr := p.store.SaveArticle(ctx, art); saveErr != nil {
			fmt.Fprintf(p.out, "warning: could not record failed article: %v\n", saveErr)
		}
		return fail(err)
	}

	art.Status = types.ArticlePublished
	art.DeliveryID = receipt.DeliveryID
	if err := p.store.SaveArticle(ctx, art); err != nil {
		return fail(err)
	}
	if err := p.store.AdvanceStage(ctx, date, types.StagePublished); err != nil {
		return fail(err)
	}
	fmt.Fprintf(p.out, "published %s (delivery %s)\n", date, art.DeliveryID)

	return &Result{Date: date, Stage: types.StagePublished, Article: art, Dropped: norm.Dropped, Resumed: resumed}, nil
}

// persistStage writes the stage artifact, optionally records the day's
// records in the seen index, and advances the persisted stage marker, in
// that order: the marker is only written once the artifact it promises
// exists.
func (p *Pipeline) persistStage(ctx context.Context, date string, stage types.Stage, artifact any, seen []types.NormalizedRecord) error {
	if err := p.store.SaveArtifact(ctx, date, stage, artifact); err != nil {
		return err
	}
	if len(seen) > 0 {
		if err := p.store.RecordSeen(ctx, date, seen); err != nil {
			return err
		}
	}
	return p.store.AdvanceStage(ctx, date, stage)
}

// loadArtifact reads a stage artifact that the persisted stage marker
// promises exists. A missing artifact is ledger corruption.
func (p *Pipeline) loadArtifact(ctx context.Context, date string, stage types.Stage, out any) error {
	ok, err := p.store.LoadArtifact(ctx, date, stage, out)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s reached %s but artifact is missing: %w", date, stage, ledger.ErrCorrupt)
	}
	return nil
}

// retry runs op with bounded exponential backoff. Only failures classified
// transient are retried; everything else propagates immediately. After the
// attempts are exhausted the last error propagates and the caller marks the
// stage failed; retrying never spans scheduler invocations.
func (p *Pipeline) retry(ctx context.Context, op func(context.Context) error) error {
	maxRetries := p.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	base := p.cfg.RetryBase
	if base <= 0 {
		base = time.Second
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = op(ctx)
		if err == nil || !types.IsTransient(err) {
			return err
		}
		if attempt >= maxRetries {
			return fmt.Errorf("after %d retries: %w", maxRetries, err)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * base
		fmt.Fprintf(p.out, "transient failure, retrying in %v (attempt %d/%d): %v\n",
			backoff, attempt+1, maxRetries, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func memberCount(clusters []types.Cluster) int {
	n := 0
	for _, c := range clusters {
		n += len(c.Members)
	}
	return n
}
