// Package stats persists generation history to a local SQLite database
// and serves the usage aggregates the dashboard charts are built from.
//
// DESIGN: modernc.org/sqlite (pure Go, no cgo) keeps the binary a single
// static artifact. One writer connection is enough at dashboard scale;
// WAL mode keeps reads from blocking the recorder.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oselz/hookboard/internal/monitoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id     TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	scope          TEXT NOT NULL,
	provider       TEXT NOT NULL,
	model          TEXT NOT NULL,
	success        INTEGER NOT NULL,
	attempts       INTEGER NOT NULL,
	prompt_tokens  INTEGER NOT NULL,
	code_tokens    INTEGER NOT NULL,
	latency_ms     INTEGER NOT NULL,
	error          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
CREATE INDEX IF NOT EXISTS idx_generations_provider   ON generations(provider);
`

// Store is the SQLite-backed generation history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the stats database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("stats database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create stats directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize stats schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordGeneration appends one generation event to the history.
func (s *Store) RecordGeneration(ctx context.Context, ev *monitoring.GenerationEvent) error {
	success := 0
	if ev.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations
			(request_id, created_at, event_type, scope, provider, model,
			 success, attempts, prompt_tokens, code_tokens, latency_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RequestID,
		time.Now().UTC().Format(time.RFC3339),
		ev.EventType,
		ev.Scope,
		ev.Provider,
		ev.Model,
		success,
		len(ev.Attempts),
		ev.PromptTokens,
		ev.CodeTokens,
		ev.TotalLatencyMs,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// ProviderUsage aggregates history for one provider.
type ProviderUsage struct {
	Provider     string `json:"provider"`
	Generations  int64  `json:"generations"`
	Successes    int64  `json:"successes"`
	PromptTokens int64  `json:"prompt_tokens"`
	CodeTokens   int64  `json:"code_tokens"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// UsageSummary is the aggregate view served at /api/stats/usage.
type UsageSummary struct {
	TotalGenerations int64           `json:"total_generations"`
	TotalSuccesses   int64           `json:"total_successes"`
	TotalFailures    int64           `json:"total_failures"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CodeTokens       int64           `json:"code_tokens"`
	ByProvider       []ProviderUsage `json:"by_provider"`
}

// Usage computes the aggregate summary across the whole history.
func (s *Store) Usage(ctx context.Context) (*UsageSummary, error) {
	summary := &UsageSummary{ByProvider: []ProviderUsage{}}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(code_tokens), 0)
		FROM generations`)
	if err := row.Scan(&summary.TotalGenerations, &summary.TotalSuccesses,
		&summary.PromptTokens, &summary.CodeTokens); err != nil {
		return nil, fmt.Errorf("failed to read usage totals: %w", err)
	}
	summary.TotalFailures = summary.TotalGenerations - summary.TotalSuccesses

	rows, err := s.db.QueryContext(ctx, `
		SELECT provider,
		       COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(code_tokens), 0),
		       COALESCE(CAST(AVG(latency_ms) AS INTEGER), 0)
		FROM generations
		WHERE provider != ''
		GROUP BY provider
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read per-provider usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u ProviderUsage
		if err := rows.Scan(&u.Provider, &u.Generations, &u.Successes,
			&u.PromptTokens, &u.CodeTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan provider usage: %w", err)
		}
		summary.ByProvider = append(summary.ByProvider, u)
	}
	return summary, rows.Err()
}

// GenerationRecord is one row of recent history.
type GenerationRecord struct {
	RequestID    string `json:"request_id"`
	CreatedAt    string `json:"created_at"`
	EventType    string `json:"event_type"`
	Scope        string `json:"scope"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Success      bool   `json:"success"`
	Attempts     int    `json:"attempts"`
	PromptTokens int    `json:"prompt_tokens"`
	CodeTokens   int    `json:"code_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
	Error        string `json:"error,omitempty"`
}

// Recent returns the newest generation records, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]GenerationRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, created_at, event_type, scope, provider, model,
		       success, attempts, prompt_tokens, code_tokens, latency_ms, error
		FROM generations
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent generations: %w", err)
	}
	defer rows.Close()

	records := []GenerationRecord{}
	for rows.Next() {
		var r GenerationRecord
		var success int
		if err := rows.Scan(&r.RequestID, &r.CreatedAt, &r.EventType, &r.Scope,
			&r.Provider, &r.Model, &success, &r.Attempts,
			&r.PromptTokens, &r.CodeTokens, &r.LatencyMs, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan generation record: %w", err)
		}
		r.Success = success == 1
		records = append(records, r)
	}
	return records, rows.Err()
}
