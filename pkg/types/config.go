// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "daily-analyst/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the discovery stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Topics are the day's configured topics of interest; one query is
	// issued per topic per backend.
	Topics []string `json:"topics" yaml:"topics"`

	// MaxResults caps results per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Concurrency bounds the number of in-flight queries (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// EnableTavily controls whether the Tavily backend is used.
	EnableTavily bool `json:"enable_tavily" yaml:"enable_tavily"`

	// EnableRSS controls whether the Google News RSS backend is used.
	EnableRSS bool `json:"enable_rss" yaml:"enable_rss"`

	// TavilyAPIKey authenticates against the Tavily API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// SearchDepth is the Tavily search depth: basic or advanced.
	SearchDepth string `json:"search_depth" yaml:"search_depth"`
}

// DedupConfig holds settings for duplicate exclusion and clustering.
type DedupConfig struct {
	// WindowDays is the trailing number of past days whose record IDs are
	// excluded as already seen (default 7).
	WindowDays int `json:"window_days" yaml:"window_days"`

	// SimilarityThreshold is the minimum title token overlap (Jaccard,
	// 0..1) for two records to be clustered (default 0.6).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// PublishWindow is the maximum spread between publication times for
	// two records to be clustered, when both are known (default 48h).
	PublishWindow time.Duration `json:"publish_window" yaml:"publish_window"`
}

// RankConfig holds settings for the ranking stage.
type RankConfig struct {
	// TopK is how many ranked clusters proceed to assembly (default 10).
	TopK int `json:"top_k" yaml:"top_k"`

	// RecencyHalfLife is the age at which the recency component halves
	// (default 24h).
	RecencyHalfLife time.Duration `json:"recency_half_life" yaml:"recency_half_life"`

	// RecencyWeight, CorroborationWeight, and TopicWeight combine the
	// score components (defaults 0.5, 0.3, 0.2).
	RecencyWeight       float64 `json:"recency_weight" yaml:"recency_weight"`
	CorroborationWeight float64 `json:"corroboration_weight" yaml:"corroboration_weight"`
	TopicWeight         float64 `json:"topic_weight" yaml:"topic_weight"`

	// FocusTopics optionally narrows the topic-match component to a subset
	// of the configured topics. Empty means the component is neutral.
	FocusTopics []string `json:"focus_topics,omitempty" yaml:"focus_topics,omitempty"`
}

// SummaryConfig holds settings for the summarization provider.
type SummaryConfig struct {
	// Model is the chat model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the summarization API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Concurrency bounds in-flight summarization calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// PublishConfig holds settings for the publishing provider.
type PublishConfig struct {
	HTTPConfig `yaml:",inline"`

	// AppID and AppSecret are the official-account credentials.
	AppID     string `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	AppSecret string `json:"app_secret,omitempty" yaml:"app_secret,omitempty"`

	// Author is the byline placed on published drafts.
	Author string `json:"author" yaml:"author"`
}

// LedgerConfig holds settings for the run ledger.
type LedgerConfig struct {
	// DataDir is the directory holding the ledger database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// RetentionDays bounds how long seen-record rows are kept (default 90).
	// Must cover both the dedup trailing window and the span the monthly
	// report reads; rows older than this are pruned on ledger writes.
	RetentionDays int `json:"retention_days" yaml:"retention_days"`
}

// PipelineConfig groups all stage configurations plus the orchestrator's
// retry policy.
type PipelineConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search"`
	Dedup   DedupConfig   `json:"dedup" yaml:"dedup"`
	Rank    RankConfig    `json:"rank" yaml:"rank"`
	Summary SummaryConfig `json:"summary" yaml:"summary"`
	Publish PublishConfig `json:"publish" yaml:"publish"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`

	// MaxRetries bounds retry attempts per external call (default 3).
	// Retries apply only to transient failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBase is the base delay for exponential backoff (default 1s).
	RetryBase time.Duration `json:"retry_base" yaml:"retry_base"`

	// RequireOutput makes a day with zero surviving stories a failed run
	// instead of a quiet no-article success.
	RequireOutput bool `json:"require_output" yaml:"require_output"`
}
