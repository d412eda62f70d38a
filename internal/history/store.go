// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists finished sessions to a SQLite database so
// past runs can be listed, inspected, and aggregated.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/draft-engine/pkg/types"
)

const dbFile = "sessions.db"

// Store manages the session history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the history database at dir/sessions.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			title TEXT,
			state TEXT NOT NULL,
			failure_reason TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			total_drafts INTEGER,
			total_tokens INTEGER,
			total_cost REAL,
			total_latency_ms INTEGER,
			best_backend TEXT,
			best_model TEXT,
			best_composite REAL,
			best_grade TEXT,
			best_text TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cycles (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			idx INTEGER NOT NULL,
			winner_idx INTEGER NOT NULL,
			PRIMARY KEY (session_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			cycle_idx INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			backend TEXT NOT NULL,
			model TEXT,
			strategy TEXT,
			content TEXT,
			ok INTEGER NOT NULL,
			error TEXT,
			latency_ms INTEGER,
			tokens INTEGER,
			cost REAL,
			composite REAL,
			grade TEXT,
			pass INTEGER,
			weakest TEXT,
			categories TEXT,
			feedback TEXT,
			PRIMARY KEY (session_id, cycle_idx, slot)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_session ON drafts(session_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save persists a session and all of its cycles and drafts atomically.
// Saving the same session ID again replaces the previous record.
func (s *Store) Save(ctx context.Context, res *types.SessionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE session_id = ?`, res.ID); err != nil {
		return fmt.Errorf("clearing drafts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cycles WHERE session_id = ?`, res.ID); err != nil {
		return fmt.Errorf("clearing cycles: %w", err)
	}

	finished := ""
	if !res.FinishedAt.IsZero() {
		finished = res.FinishedAt.Format(time.RFC3339Nano)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions
			(id, topic, title, state, failure_reason, started_at, finished_at,
			 total_drafts, total_tokens, total_cost, total_latency_ms,
			 best_backend, best_model, best_composite, best_grade, best_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Topic, res.Title, string(res.State), res.FailureReason,
		res.StartedAt.Format(time.RFC3339Nano), finished,
		res.Totals.Drafts, res.Totals.Tokens, res.Totals.Cost, res.Totals.Latency.Milliseconds(),
		res.Best.Draft.Backend, res.Best.Draft.Model,
		res.Best.Report.Composite, res.Best.Report.Grade, res.Best.Draft.Text,
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO drafts
			(session_id, cycle_idx, slot, backend, model, strategy, content, ok, error,
			 latency_ms, tokens, cost, composite, grade, pass, weakest, categories, feedback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing draft insert: %w", err)
	}
	defer stmt.Close()

	for _, cycle := range res.Cycles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cycles (session_id, idx, winner_idx) VALUES (?, ?, ?)`,
			res.ID, cycle.Index, cycle.WinnerIdx,
		); err != nil {
			return fmt.Errorf("inserting cycle %d: %w", cycle.Index, err)
		}

		for slot, sd := range cycle.Drafts {
			categoriesJSON, _ := json.Marshal(sd.Report.Categories)
			feedbackJSON, _ := json.Marshal(sd.Report.Feedback)
			_, err := stmt.ExecContext(ctx,
				res.ID, cycle.Index, slot,
				sd.Draft.Backend, sd.Draft.Model, sd.Draft.Strategy, sd.Draft.Text,
				sd.Draft.OK, sd.Draft.Err, sd.Draft.Latency.Milliseconds(),
				sd.Draft.Tokens, sd.Draft.Cost,
				sd.Report.Composite, sd.Report.Grade, sd.Report.Pass, sd.Report.Weakest,
				string(categoriesJSON), string(feedbackJSON),
			)
			if err != nil {
				return fmt.Errorf("inserting draft %d/%d: %w", cycle.Index, slot, err)
			}
		}
	}

	return tx.Commit()
}

// Summary is one row of the session listing.
type Summary struct {
	ID            string
	Topic         string
	Title         string
	State         types.SessionState
	BestComposite float64
	BestGrade     string
	Cost          float64
	StartedAt     time.Time
}

// List returns the most recent sessions, newest first, capped at the
// configured maximum.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, title, state, best_composite, best_grade, total_cost, started_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var state, startedAt string
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Title, &state,
			&sum.BestComposite, &sum.BestGrade, &sum.Cost, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sum.State = types.SessionState(state)
		sum.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads a full session, including every cycle and scored draft.
func (s *Store) Get(ctx context.Context, id string) (*types.SessionResult, error) {
	res := &types.SessionResult{ID: id}
	var state, startedAt, finishedAt string
	var latencyMS int64

	err := s.db.QueryRowContext(ctx,
		`SELECT topic, title, state, failure_reason, started_at, finished_at,
			total_drafts, total_tokens, total_cost, total_latency_ms,
			best_backend, best_model, best_composite, best_grade, best_text
		 FROM sessions WHERE id = ?`, id,
	).Scan(&res.Topic, &res.Title, &state, &res.FailureReason, &startedAt, &finishedAt,
		&res.Totals.Drafts, &res.Totals.Tokens, &res.Totals.Cost, &latencyMS,
		&res.Best.Draft.Backend, &res.Best.Draft.Model,
		&res.Best.Report.Composite, &res.Best.Report.Grade, &res.Best.Draft.Text)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	res.State = types.SessionState(state)
	res.Totals.Latency = time.Duration(latencyMS) * time.Millisecond
	res.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if finishedAt != "" {
		res.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	}
	if res.Best.Draft.Text != "" {
		res.Best.Draft.OK = true
	}

	cycles, err := s.loadCycles(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Cycles = cycles
	return res, nil
}

func (s *Store) loadCycles(ctx context.Context, id string) ([]types.CycleResult, error) {
	winners := map[int]int{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, winner_idx FROM cycles WHERE session_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("loading cycles: %w", err)
	}
	defer rows.Close()

	var order []int
	for rows.Next() {
		var idx, winnerIdx int
		if err := rows.Scan(&idx, &winnerIdx); err != nil {
			return nil, fmt.Errorf("scanning cycle row: %w", err)
		}
		winners[idx] = winnerIdx
		order = append(order, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drafts := map[int][]types.ScoredDraft{}
	draftRows, err := s.db.QueryContext(ctx,
		`SELECT cycle_idx, backend, model, strategy, content, ok, error,
			latency_ms, tokens, cost, composite, grade, pass, weakest, categories, feedback
		 FROM drafts WHERE session_id = ? ORDER BY cycle_idx, slot`, id)
	if err != nil {
		return nil, fmt.Errorf("loading drafts: %w", err)
	}
	defer draftRows.Close()

	for draftRows.Next() {
		var cycleIdx int
		var sd types.ScoredDraft
		var latencyMS int64
		var categoriesJSON, feedbackJSON string
		if err := draftRows.Scan(&cycleIdx,
			&sd.Draft.Backend, &sd.Draft.Model, &sd.Draft.Strategy, &sd.Draft.Text,
			&sd.Draft.OK, &sd.Draft.Err, &latencyMS, &sd.Draft.Tokens, &sd.Draft.Cost,
			&sd.Report.Composite, &sd.Report.Grade, &sd.Report.Pass, &sd.Report.Weakest,
			&categoriesJSON, &feedbackJSON); err != nil {
			return nil, fmt.Errorf("scanning draft row: %w", err)
		}
		sd.Draft.Cycle = cycleIdx
		sd.Draft.Latency = time.Duration(latencyMS) * time.Millisecond
		if err := json.Unmarshal([]byte(categoriesJSON), &sd.Report.Categories); err != nil {
			return nil, fmt.Errorf("parsing categories: %w", err)
		}
		if err := json.Unmarshal([]byte(feedbackJSON), &sd.Report.Feedback); err != nil {
			return nil, fmt.Errorf("parsing feedback: %w", err)
		}
		drafts[cycleIdx] = append(drafts[cycleIdx], sd)
	}
	if err := draftRows.Err(); err != nil {
		return nil, err
	}

	out := make([]types.CycleResult, 0, len(order))
	for _, idx := range order {
		out = append(out, types.CycleResult{
			Index:     idx,
			Drafts:    drafts[idx],
			WinnerIdx: winners[idx],
		})
	}
	return out, nil
}

// Stats aggregates usage across all stored sessions.
type Stats struct {
	Sessions      int
	Completed     int
	Failed        int
	Drafts        int
	Tokens        int
	Cost          float64
	AvgComposite  float64
	BestComposite float64
}

// Aggregate computes totals across the whole history.
func (s *Store) Aggregate(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*),
			coalesce(sum(state = 'DONE'), 0),
			coalesce(sum(state = 'FAILED'), 0),
			coalesce(sum(total_drafts), 0),
			coalesce(sum(total_tokens), 0),
			coalesce(sum(total_cost), 0),
			coalesce(avg(best_composite), 0),
			coalesce(max(best_composite), 0)
		 FROM sessions`,
	).Scan(&stats.Sessions, &stats.Completed, &stats.Failed,
		&stats.Drafts, &stats.Tokens, &stats.Cost,
		&stats.AvgComposite, &stats.BestComposite)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating sessions: %w", err)
	}
	return stats, nil
}
