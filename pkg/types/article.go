// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArticleStatus tracks an Article through its lifecycle.
type ArticleStatus string

const (
	// ArticleDraft is the status of a freshly assembled article.
	ArticleDraft ArticleStatus = "draft"

	// ArticlePublished means the publishing provider confirmed delivery.
	ArticlePublished ArticleStatus = "published"

	// ArticleFailed means publication failed unrecoverably.
	ArticleFailed ArticleStatus = "failed"
)

// Section is one ranked story within an Article.
type Section struct {
	// Title is the section headline, taken from the cluster representative.
	Title string `json:"title" yaml:"title"`

	// Summary is the text returned by the summarization provider.
	Summary string `json:"summary" yaml:"summary"`

	// SourceURLs attributes the section to its originating links. Never
	// empty: the assembler refuses to fabricate attribution.
	SourceURLs []string `json:"source_urls" yaml:"source_urls"`
}

// Article is the assembled output for one logical day.
type Article struct {
	// ID is stable per date (article-YYYY-MM-DD).
	ID string `json:"id" yaml:"id"`

	// Date is the run's logical day in YYYY-MM-DD form, independent of
	// wall-clock execution time.
	Date string `json:"date" yaml:"date"`

	// Title is the article headline.
	Title string `json:"title" yaml:"title"`

	// Sections are ordered by rank.
	Sections []Section `json:"sections" yaml:"sections"`

	// Body is the composed Markdown document.
	Body string `json:"body" yaml:"body"`

	// Status is draft until the publishing provider confirms delivery.
	Status ArticleStatus `json:"status" yaml:"status"`

	// DeliveryID is the publishing provider's receipt, set on success.
	DeliveryID string `json:"delivery_id,omitempty" yaml:"delivery_id,omitempty"`
}

// Stage names one step in the run ledger's state machine. Order:
// not_started → normalized → deduplicated → ranked → assembled → published,
// with failed reachable from any non-terminal state.
type Stage string

const (
	StageNotStarted   Stage = "not_started"
	StageNormalized   Stage = "normalized"
	StageDeduplicated Stage = "deduplicated"
	StageRanked       Stage = "ranked"
	StageAssembled    Stage = "assembled"
	StagePublished    Stage = "published"
	StageFailed       Stage = "failed"
)

// stageOrder maps non-terminal stages to their position in the pipeline.
var stageOrder = map[Stage]int{
	StageNotStarted:   0,
	StageNormalized:   1,
	StageDeduplicated: 2,
	StageRanked:       3,
	StageAssembled:    4,
	StagePublished:    5,
}

// Valid reports whether s is a known stage value.
func (s Stage) Valid() bool {
	if s == StageFailed {
		return true
	}
	_, ok := stageOrder[s]
	return ok
}

// Terminal reports whether s ends a run: published (success) or failed.
func (s Stage) Terminal() bool {
	return s == StagePublished || s == StageFailed
}

// Reached reports whether a run at stage s has completed stage other.
// Failed runs report false for everything: a failed run is not resumable.
func (s Stage) Reached(other Stage) bool {
	si, ok := stageOrder[s]
	if !ok {
		return false
	}
	oi, ok := stageOrder[other]
	if !ok {
		return false
	}
	return si >= oi
}

// RunRecord is the ledger entry for one date. At most one exists per date;
// it is upserted, never duplicated.
type RunRecord struct {
	// Date is the logical day in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// Stage is the last persisted stage. Re-invocation resumes here.
	Stage Stage `json:"stage" yaml:"stage"`

	// AttemptCount counts scheduler invocations for this date.
	AttemptCount int `json:"attempt_count" yaml:"attempt_count"`

	// LastError records the most recent failure, empty when none.
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`

	// ArticleID links to the stored Article once one exists.
	ArticleID string `json:"article_id,omitempty" yaml:"article_id,omitempty"`

	// UpdatedAt is the wall-clock time of the last ledger write.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DateFormat is the logical-day layout used throughout the pipeline.
const DateFormat = "2006-01-02"
