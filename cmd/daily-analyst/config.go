// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/daily-analyst/internal/secrets"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

// pipelineConfig assembles the full pipeline configuration from viper
// settings and loaded secrets. Secrets override config-file values so
// credentials never have to live in YAML.
func pipelineConfig() types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: "daily-analyst/" + version,
	}

	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig:   httpCfg,
			Topics:       viper.GetStringSlice("topics"),
			MaxResults:   viper.GetInt("search.max_results"),
			Concurrency:  viper.GetInt("search.concurrency"),
			EnableTavily: viper.GetBool("search.enable_tavily"),
			EnableRSS:    viper.GetBool("search.enable_rss"),
			TavilyAPIKey: secrets.Get(loadedSecrets, "tavily-api-key", "TAVILY_API_KEY"),
			SearchDepth:  viper.GetString("search.depth"),
		},
		Dedup: types.DedupConfig{
			WindowDays:          viper.GetInt("dedup.window_days"),
			SimilarityThreshold: viper.GetFloat64("dedup.similarity_threshold"),
			PublishWindow:       viper.GetDuration("dedup.publish_window"),
		},
		Rank: types.RankConfig{
			TopK:                viper.GetInt("rank.top_k"),
			RecencyHalfLife:     viper.GetDuration("rank.recency_half_life"),
			RecencyWeight:       viper.GetFloat64("rank.recency_weight"),
			CorroborationWeight: viper.GetFloat64("rank.corroboration_weight"),
			TopicWeight:         viper.GetFloat64("rank.topic_weight"),
			FocusTopics:         viper.GetStringSlice("rank.focus_topics"),
		},
		Summary: types.SummaryConfig{
			Model:       viper.GetString("summary.model"),
			APIKey:      secrets.Get(loadedSecrets, "openai-api-key", "OPENAI_API_KEY"),
			Concurrency: viper.GetInt("summary.concurrency"),
		},
		Publish: types.PublishConfig{
			HTTPConfig: httpCfg,
			AppID:      secrets.Get(loadedSecrets, "wechat-app-id", "WECHAT_APP_ID"),
			AppSecret:  secrets.Get(loadedSecrets, "wechat-app-secret", "WECHAT_APP_SECRET"),
			Author:     viper.GetString("publish.author"),
		},
		Ledger: types.LedgerConfig{
			DataDir:       viper.GetString("ledger.data_dir"),
			RetentionDays: viper.GetInt("ledger.retention_days"),
		},
		MaxRetries:    viper.GetInt("pipeline.max_retries"),
		RetryBase:     viper.GetDuration("pipeline.retry_base"),
		RequireOutput: viper.GetBool("pipeline.require_output"),
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config resolves defaults, the config file, environment variables, and
loaded secrets into the configuration the pipeline would run with, and
prints it. Credential values are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		redact(&cfg.Search.TavilyAPIKey)
		redact(&cfg.Summary.APIKey)
		redact(&cfg.Publish.AppID)
		redact(&cfg.Publish.AppSecret)

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		os.Stdout.Write(data)
		return nil
	},
}

func redact(s *string) {
	if *s != "" {
		*s = "[redacted]"
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
