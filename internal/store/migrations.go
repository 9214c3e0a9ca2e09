package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "items: candidate memory fragments",
		SQL: `
CREATE TABLE items (
    id          TEXT PRIMARY KEY,
    category    TEXT NOT NULL CHECK (category IN ('health', 'personal', 'relationships', 'preferences', 'conversation', 'events', 'tasks')),
    source      TEXT NOT NULL CHECK (source IN ('voice', 'text', 'system')),
    content     TEXT NOT NULL,
    occurred_at INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    importance  INTEGER NOT NULL DEFAULT 50 CHECK (importance BETWEEN 0 AND 100)
);

CREATE INDEX idx_items_category    ON items(category);
CREATE INDEX idx_items_occurred_at ON items(occurred_at DESC);
`,
	},
	{
		Version:     2,
		Description: "feedback: reinforcement signals per item",
		SQL: `
CREATE TABLE feedback (
    item_id    TEXT NOT NULL,
    signal     TEXT NOT NULL CHECK (signal IN ('pinned', 'reused', 'corrected', 'dismissed')),
    created_at INTEGER NOT NULL,

    PRIMARY KEY (item_id, signal),
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX idx_feedback_signal ON feedback(signal);
`,
	},
	{
		Version:     3,
		Description: "runs: selection run audit log",
		SQL: `
CREATE TABLE runs (
    id             TEXT PRIMARY KEY,
    session_id     TEXT,
    user_id        TEXT,
    turn           INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL,
    included_count INTEGER NOT NULL,
    excluded_count INTEGER NOT NULL,
    metrics        TEXT NOT NULL,
    result         TEXT NOT NULL
);

CREATE INDEX idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX idx_runs_session    ON runs(session_id);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
