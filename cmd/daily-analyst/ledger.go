// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/daily-analyst/internal/ledger"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

var ledgerDate string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect recorded run state",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the run record for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		date := ledgerDateOrToday()
		rec, err := store.Run(cmd.Context(), date)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Printf("No run recorded for %s\n", date)
			return nil
		}

		fmt.Printf("Date:     %s\n", rec.Date)
		fmt.Printf("Stage:    %s\n", rec.Stage)
		fmt.Printf("Attempts: %d\n", rec.AttemptCount)
		if rec.ArticleID != "" {
			fmt.Printf("Article:  %s\n", rec.ArticleID)
		}
		if rec.LastError != "" {
			fmt.Printf("Error:    %s\n", rec.LastError)
		}
		fmt.Printf("Updated:  %s\n", rec.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

var ledgerArticleCmd = &cobra.Command{
	Use:   "article",
	Short: "Print the stored article for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		date := ledgerDateOrToday()
		art, err := store.ArticleByDate(cmd.Context(), date)
		if err != nil {
			return err
		}
		if art == nil {
			fmt.Printf("No article stored for %s\n", date)
			return nil
		}

		fmt.Fprintf(os.Stderr, "%s (%s", art.ID, art.Status)
		if art.DeliveryID != "" {
			fmt.Fprintf(os.Stderr, ", delivery %s", art.DeliveryID)
		}
		fmt.Fprintln(os.Stderr, ")")
		fmt.Println(art.Body)
		return nil
	},
}

func openStore() (*ledger.Store, error) {
	store, err := ledger.Open(pipelineConfig().Ledger)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return store, nil
}

func ledgerDateOrToday() string {
	if ledgerDate != "" {
		return ledgerDate
	}
	return time.Now().UTC().Format(types.DateFormat)
}

func init() {
	ledgerCmd.PersistentFlags().StringVar(&ledgerDate, "date", "", "logical day, YYYY-MM-DD (default: today, UTC)")
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerArticleCmd)
	rootCmd.AddCommand(ledgerCmd)
}
