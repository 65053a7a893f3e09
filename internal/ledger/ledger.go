// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists per-day run state so re-invocation is idempotent
// and partial failures are resumable. The ledger is the single shared
// mutable resource of the pipeline: stage writes for one date are
// serialized, runs for different dates are independent.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

const dbFile = "daily-analyst.db"

// defaultRetentionDays keeps seen rows long enough for both the dedup
// trailing window and the previous month's report.
const defaultRetentionDays = 90

// ErrCorrupt marks a ledger entry that is unreadable or inconsistent.
// Fatal: corrupt entries require manual intervention and are never silently
// reset.
var ErrCorrupt = errors.New("ledger entry corrupt")

// Store manages the run ledger SQLite database.
type Store struct {
	db            *sql.DB
	retentionDays int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open opens or creates the ledger database at dataDir/daily-analyst.db,
// creating the schema if needed.
func Open(cfg types.LedgerConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	retention := cfg.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	s := &Store{db: db, retentionDays: retention, locks: make(map[string]*sync.Mutex)}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			date TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			article_id TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS seen_records (
			id TEXT NOT NULL,
			date TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			topics TEXT NOT NULL DEFAULT '[]',
			source_urls TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_records_date ON seen_records(date)`,
		`CREATE TABLE IF NOT EXISTS run_artifacts (
			date TEXT NOT NULL,
			stage TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (date, stage)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Lock serializes stage writes for one date. The returned function releases
// the lock. Different dates lock independently.
func (s *Store) Lock(date string) func() {
	s.mu.Lock()
	l, ok := s.locks[date]
	if !ok {
		l = &sync.Mutex{}
		s.locks[date] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Run returns the RunRecord for date, or nil when the date has never run.
// An unknown stage value in the row surfaces as ErrCorrupt.
func (s *Store) Run(ctx context.Context, date string) (*types.RunRecord, error) {
	var rec types.RunRecord
	var stage, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT date, stage, attempt_count, last_error, article_id, updated_at
		 FROM runs WHERE date = ?`, date,
	).Scan(&rec.Date, &stage, &rec.AttemptCount, &rec.LastError, &rec.ArticleID, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", date, err)
	}

	rec.Stage = types.Stage(stage)
	if !rec.Stage.Valid() {
		return nil, fmt.Errorf("run %s has stage %q: %w", date, stage, ErrCorrupt)
	}
	if t, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

// BeginAttempt upserts the run row for date, incrementing its attempt count.
// A new date starts at not_started.
func (s *Store) BeginAttempt(ctx context.Context, date string) (*types.RunRecord, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (date, stage, attempt_count, updated_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT(date) DO UPDATE SET
			attempt_count = attempt_count + 1, updated_at = excluded.updated_at`,
		date, string(types.StageNotStarted), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("beginning attempt for %s: %w", date, err)
	}
	return s.Run(ctx, date)
}

// AdvanceStage persists a completed stage transition and clears the last
// error. Called before the next stage begins, so a crash resumes here.
func (s *Store) AdvanceStage(ctx context.Context, date string, stage types.Stage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stage = ?, last_error = '', updated_at = ? WHERE date = ?`,
		string(stage), now(), date,
	)
	if err != nil {
		return fmt.Errorf("advancing %s to %s: %w", date, stage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("advancing %s to %s: no run row", date, stage)
	}
	return nil
}

// MarkFailed moves the run to the terminal failed stage, recording the cause.
func (s *Store) MarkFailed(ctx context.Context, date, cause string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (date, stage, attempt_count, last_error, updated_at) VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			stage = excluded.stage, last_error = excluded.last_error, updated_at = excluded.updated_at`,
		date, string(types.StageFailed), cause, now(),
	)
	if err != nil {
		return fmt.Errorf("marking %s failed: %w", date, err)
	}
	return nil
}

// SaveArticle upserts the article and links it to its run row.
func (s *Store) SaveArticle(ctx context.Context, art *types.Article) error {
	payload, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("encoding article %s: %w", art.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO articles (id, date, status, payload, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, payload = excluded.payload, updated_at = excluded.updated_at`,
		art.ID, art.Date, string(art.Status), string(payload), now(),
	); err != nil {
		return fmt.Errorf("upserting article %s: %w", art.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET article_id = ?, updated_at = ? WHERE date = ?`,
		art.ID, now(), art.Date,
	); err != nil {
		return fmt.Errorf("linking article %s: %w", art.ID, err)
	}
	return tx.Commit()
}

// ArticleByDate returns the stored article for date, or nil when none
// exists. Undecodable payloads surface as ErrCorrupt.
func (s *Store) ArticleByDate(ctx context.Context, date string) (*types.Article, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM articles WHERE date = ?`, date,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading article for %s: %w", date, err)
	}

	var art types.Article
	if err := json.Unmarshal([]byte(payload), &art); err != nil {
		return nil, fmt.Errorf("article for %s undecodable: %v: %w", date, err, ErrCorrupt)
	}
	return &art, nil
}

// RecordSeen adds the day's normalized records to the seen index. Upserted:
// re-running a date never duplicates rows. Each write also prunes rows past
// the retention horizon, keeping the index a bounded window rather than
// unbounded history.
func (s *Store) RecordSeen(ctx context.Context, date string, records []types.NormalizedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO seen_records (id, date, title, topics, source_urls) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id, date) DO UPDATE SET
			title = excluded.title, topics = excluded.topics, source_urls = excluded.source_urls`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		topics, _ := json.Marshal(r.TopicTags)
		urls, _ := json.Marshal(r.SourceURLs)
		if _, err := stmt.ExecContext(ctx, r.ID, date, r.Title, string(topics), string(urls)); err != nil {
			return fmt.Errorf("recording seen %s: %w", r.ID, err)
		}
	}

	// The horizon is anchored on the run's logical day, not wall clock, so
	// re-runs of a past date never prune rows a current run still needs.
	if day, parseErr := time.Parse(types.DateFormat, date); parseErr == nil {
		horizon := day.AddDate(0, 0, -s.retentionDays).Format(types.DateFormat)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM seen_records WHERE date < ?`, horizon); err != nil {
			return fmt.Errorf("pruning seen rows before %s: %w", horizon, err)
		}
	}
	return tx.Commit()
}

// SeenBefore returns the record IDs seen in the trailing windowDays days
// before date (exclusive). The query is bounded by the date index; it never
// scans unbounded history.
func (s *Store) SeenBefore(ctx context.Context, date string, windowDays int) (map[string]bool, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	day, err := time.Parse(types.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	from := day.AddDate(0, 0, -windowDays).Format(types.DateFormat)

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT id FROM seen_records WHERE date >= ? AND date < ?`, from, date)
	if err != nil {
		return nil, fmt.Errorf("reading seen window: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning seen row: %w", err)
		}
		seen[id] = true
	}
	return seen, rows.Err()
}

// SaveArtifact persists a stage's output for date as JSON, enabling resumed
// runs to skip completed stages.
func (s *Store) SaveArtifact(ctx context.Context, date string, stage types.Stage, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s artifact: %w", stage, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_artifacts (date, stage, payload) VALUES (?, ?, ?)
		 ON CONFLICT(date, stage) DO UPDATE SET payload = excluded.payload`,
		date, string(stage), string(payload),
	)
	if err != nil {
		return fmt.Errorf("saving %s artifact for %s: %w", stage, date, err)
	}
	return nil
}

// LoadArtifact reads a stage artifact into out. Returns false when the
// artifact does not exist; an undecodable payload surfaces as ErrCorrupt.
func (s *Store) LoadArtifact(ctx context.Context, date string, stage types.Stage, out any) (bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM run_artifacts WHERE date = ? AND stage = ?`, date, string(stage),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s artifact for %s: %w", stage, date, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("%s artifact for %s undecodable: %v: %w", stage, date, err, ErrCorrupt)
	}
	return true, nil
}

// ClearRun erases all state for date: run row, artifacts, article, and seen
// rows. Used by --force to intentionally bypass idempotence.
func (s *Store) ClearRun(ctx context.Context, date string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM runs WHERE date = ?`,
		`DELETE FROM run_artifacts WHERE date = ?`,
		`DELETE FROM articles WHERE date = ?`,
		`DELETE FROM seen_records WHERE date = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, date); err != nil {
			return fmt.Errorf("clearing run %s: %w", date, err)
		}
	}
	return tx.Commit()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
