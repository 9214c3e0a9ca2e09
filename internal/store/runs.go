package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/curatord/curator/internal/selector"
)

// Run is one persisted selection run. Metrics and Result carry the full
// JSON so the audit trail survives process restarts; the trace ring in
// the selector is memory-only.
type Run struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	UserID        string          `json:"user_id"`
	Turn          int             `json:"turn"`
	CreatedAt     int64           `json:"created_at"`
	IncludedCount int             `json:"included_count"`
	ExcludedCount int             `json:"excluded_count"`
	Metrics       json.RawMessage `json:"metrics"`
	Result        json.RawMessage `json:"result,omitempty"`
}

// SaveRun persists a trace entry.
func (db *DB) SaveRun(entry selector.TraceEntry) error {
	metrics, err := json.Marshal(entry.Result.Metrics)
	if err != nil {
		return fmt.Errorf("marshal run metrics: %w", err)
	}
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO runs (id, session_id, user_id, turn, created_at, included_count, excluded_count, metrics, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.RunID, entry.Meta.SessionID, entry.Meta.UserID, entry.Meta.Turn,
		entry.RecordedAt.UnixMilli(), len(entry.Result.Included), len(entry.Result.Excluded),
		string(metrics), string(result))
	if err != nil {
		return fmt.Errorf("save run %s: %w", entry.RunID, err)
	}
	return nil
}

// RecentRuns returns the n most recent runs, most recent first, without
// the full result payload.
func (db *DB) RecentRuns(n int) ([]Run, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := db.Query(`
		SELECT id, session_id, user_id, turn, created_at, included_count, excluded_count, metrics
		FROM runs ORDER BY created_at DESC, id LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var metrics string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.UserID, &r.Turn, &r.CreatedAt,
			&r.IncludedCount, &r.ExcludedCount, &metrics); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Metrics = json.RawMessage(metrics)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its full result payload, or nil if the id
// is unknown.
func (db *DB) GetRun(id string) (*Run, error) {
	var r Run
	var metrics, result string
	err := db.QueryRow(`
		SELECT id, session_id, user_id, turn, created_at, included_count, excluded_count, metrics, result
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.SessionID, &r.UserID, &r.Turn, &r.CreatedAt,
		&r.IncludedCount, &r.ExcludedCount, &metrics, &result)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	r.Metrics = json.RawMessage(metrics)
	r.Result = json.RawMessage(result)
	return &r, nil
}
