// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/daily-analyst/internal/assemble"
	"github.com/pdiddy/daily-analyst/internal/httputil"
	"github.com/pdiddy/daily-analyst/internal/ledger"
	"github.com/pdiddy/daily-analyst/internal/pipeline"
	"github.com/pdiddy/daily-analyst/internal/publish"
	"github.com/pdiddy/daily-analyst/internal/search"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

var (
	runDate        string
	runForce       bool
	runSkipPublish bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the daily pipeline for one logical day",
	Long: `Run executes the full discover, deduplicate, rank, summarize, publish
sequence for a single date. Re-running a date that already published is a
cheap no-op; a run interrupted partway resumes from its last completed
stage. Use --force to discard all recorded state for the date and start
over.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()

		date := runDate
		if date == "" {
			date = time.Now().UTC().Format(types.DateFormat)
		}

		store, err := ledger.Open(cfg.Ledger)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		defer store.Close()

		var backends []search.Backend
		if cfg.Search.EnableTavily {
			backends = append(backends, &search.TavilyBackend{Client: httputil.NewClient(cfg.Search.HTTPConfig)})
		}
		if cfg.Search.EnableRSS {
			backends = append(backends, &search.RSSBackend{Client: httputil.NewClient(cfg.Search.HTTPConfig)})
		}
		if len(backends) == 0 {
			return fmt.Errorf("no search backends enabled")
		}

		summarizer := assemble.NewOpenAISummarizer(cfg.Summary)

		var publisher publish.Publisher
		if !runSkipPublish {
			publisher, err = publish.NewClient(cfg.Publish)
			if err != nil {
				return fmt.Errorf("configuring publisher (or pass --skip-publish): %w", err)
			}
		}

		p := pipeline.New(cfg, store, backends, summarizer, publisher, os.Stderr)
		res, err := p.Run(cmd.Context(), date, pipeline.Options{
			Force:       runForce,
			SkipPublish: runSkipPublish,
		})
		if err != nil {
			return fmt.Errorf("run %s: %w", date, err)
		}

		switch {
		case res.Article == nil:
			fmt.Printf("Run %s complete: no new stories today, no article produced\n", date)
		case res.Resumed:
			fmt.Printf("Run %s already at stage %s: article %s (%s)\n", date, res.Stage, res.Article.ID, res.Article.Status)
		default:
			fmt.Printf("Run %s complete: article %s with %d sections (%s)\n",
				date, res.Article.ID, len(res.Article.Sections), res.Article.Status)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "logical day to run, YYYY-MM-DD (default: today, UTC)")
	runCmd.Flags().BoolVar(&runForce, "force", false, "discard recorded state for the date and start over")
	runCmd.Flags().BoolVar(&runSkipPublish, "skip-publish", false, "stop after assembly, leaving the article a draft")
	rootCmd.AddCommand(runCmd)
}
