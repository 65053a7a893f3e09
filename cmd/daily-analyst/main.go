// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the daily-analyst CLI, the scheduler
// boundary of the daily briefing pipeline.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/daily-analyst/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the daily-analyst CLI.
var rootCmd = &cobra.Command{
	Use:   "daily-analyst",
	Short: "Automated daily AI-news briefing for one publisher account",
	Long: `daily-analyst turns noisy, overlapping news search results into a single
deduplicated, ranked, summarized article and delivers it to the publishing
platform. An external scheduler invokes "run" once per day; "report"
aggregates a month of runs into a performance summary.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./daily-analyst.yaml or ~/.config/daily-analyst/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("daily-analyst")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "daily-analyst"))
		}
	}

	viper.SetEnvPrefix("DAILY_ANALYST")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("topics", []string{
		"AI large language models",
		"OpenAI", "Anthropic", "Google AI", "Microsoft AI", "Meta AI",
	})
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.concurrency", 4)
	viper.SetDefault("search.depth", "basic")
	viper.SetDefault("search.enable_tavily", true)
	viper.SetDefault("search.enable_rss", false)
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("dedup.window_days", 7)
	viper.SetDefault("dedup.similarity_threshold", 0.6)
	viper.SetDefault("dedup.publish_window", "48h")
	viper.SetDefault("rank.top_k", 10)
	viper.SetDefault("rank.recency_half_life", "24h")
	viper.SetDefault("summary.model", "gpt-4o-mini")
	viper.SetDefault("summary.concurrency", 4)
	viper.SetDefault("publish.author", "AI Daily Analyst")
	viper.SetDefault("ledger.data_dir", "data")
	viper.SetDefault("ledger.retention_days", 90)
	viper.SetDefault("pipeline.max_retries", 3)
	viper.SetDefault("pipeline.retry_base", "1s")
	viper.SetDefault("pipeline.require_output", false)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
