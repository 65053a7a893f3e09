// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/daily-analyst/internal/ledger"
	"github.com/pdiddy/daily-analyst/internal/publish"
	"github.com/pdiddy/daily-analyst/internal/report"
)

var (
	reportMonth     string
	reportOut       string
	reportWithStats bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the monthly performance report",
	Long: `Report aggregates a calendar month of run history into a Markdown
summary: record volume, topic and source distributions, the published
article list, and optionally readership numbers from the publishing
platform (--with-stats).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()

		month := reportMonth
		if month == "" {
			// Default to the previous calendar month, the one most
			// recently completed.
			month = time.Now().UTC().AddDate(0, -1, 0).Format("2006-01")
		}
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("invalid month %q (want YYYY-MM): %w", month, err)
		}

		store, err := ledger.Open(cfg.Ledger)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		defer store.Close()

		var stats report.StatsSource
		if reportWithStats {
			client, err := publish.NewClient(cfg.Publish)
			if err != nil {
				return fmt.Errorf("configuring stats source: %w", err)
			}
			stats = client
		}

		out := os.Stdout
		if reportOut != "" {
			f, err := os.Create(reportOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", reportOut, err)
			}
			defer f.Close()
			out = f
		}

		s, err := report.Generate(cmd.Context(), store, t.Year(), int(t.Month()), stats, out)
		if err != nil {
			return fmt.Errorf("report %s: %w", month, err)
		}
		fmt.Fprintf(os.Stderr, "Report %s: %d records, %d published, %d failed\n",
			s.Month, s.RecordCount, s.PublishedCount, s.FailedCount)
		if reportOut != "" {
			fmt.Fprintln(os.Stderr, "Wrote", reportOut)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "month to report on, YYYY-MM (default: previous month)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to a file instead of stdout")
	reportCmd.Flags().BoolVar(&reportWithStats, "with-stats", false, "include readership numbers from the publishing platform")
	rootCmd.AddCommand(reportCmd)
}
