// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

// SeenRecord is one row of the seen index, used by the monthly aggregation
// job to compute topic and source distributions.
type SeenRecord struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	Title      string   `json:"title"`
	Topics     []string `json:"topics"`
	SourceURLs []string `json:"source_urls"`
}

// RunsBetween returns the run records with from <= date <= to, ordered by date.
func (s *Store) RunsBetween(ctx context.Context, from, to string) ([]types.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, stage, attempt_count, last_error, article_id
		 FROM runs WHERE date >= ? AND date <= ? ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var rec types.RunRecord
		var stage string
		if err := rows.Scan(&rec.Date, &stage, &rec.AttemptCount, &rec.LastError, &rec.ArticleID); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		rec.Stage = types.Stage(stage)
		if !rec.Stage.Valid() {
			return nil, fmt.Errorf("run %s has stage %q: %w", rec.Date, stage, ErrCorrupt)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// ArticlesBetween returns the stored articles with from <= date <= to,
// ordered by date.
func (s *Store) ArticlesBetween(ctx context.Context, from, to string) ([]types.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, payload FROM articles WHERE date >= ? AND date <= ? ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		var date, payload string
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		var art types.Article
		if err := json.Unmarshal([]byte(payload), &art); err != nil {
			return nil, fmt.Errorf("article for %s undecodable: %v: %w", date, err, ErrCorrupt)
		}
		articles = append(articles, art)
	}
	return articles, rows.Err()
}

// SeenBetween returns the seen-index rows with from <= date <= to, ordered
// by date then ID.
func (s *Store) SeenBetween(ctx context.Context, from, to string) ([]SeenRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, title, topics, source_urls
		 FROM seen_records WHERE date >= ? AND date <= ? ORDER BY date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading seen records: %w", err)
	}
	defer rows.Close()

	var records []SeenRecord
	for rows.Next() {
		var rec SeenRecord
		var topics, urls string
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Title, &topics, &urls); err != nil {
			return nil, fmt.Errorf("scanning seen row: %w", err)
		}
		if err := json.Unmarshal([]byte(topics), &rec.Topics); err != nil {
			return nil, fmt.Errorf("seen %s topics undecodable: %v: %w", rec.ID, err, ErrCorrupt)
		}
		if err := json.Unmarshal([]byte(urls), &rec.SourceURLs); err != nil {
			return nil, fmt.Errorf("seen %s sources undecodable: %v: %w", rec.ID, err, ErrCorrupt)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
