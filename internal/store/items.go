package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/curatord/curator/internal/selector"
)

// Item is a persisted candidate memory fragment. Timestamps are unix
// milliseconds, matching how they go over the wire.
type Item struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Source     string `json:"source"`
	Content    string `json:"content"`
	OccurredAt int64  `json:"occurred_at"`
	CreatedAt  int64  `json:"created_at"`
	Importance int    `json:"importance"`
}

// Candidate converts the persisted row into the selector's input form.
func (it Item) Candidate() selector.CandidateItem {
	return selector.CandidateItem{
		ID:         it.ID,
		Category:   selector.Category(it.Category),
		Source:     selector.Source(it.Source),
		Content:    it.Content,
		OccurredAt: time.UnixMilli(it.OccurredAt),
		CreatedAt:  time.UnixMilli(it.CreatedAt),
		Importance: it.Importance,
	}
}

// SaveItem inserts or replaces an item. A zero CreatedAt is stamped with
// the current time.
func (db *DB) SaveItem(it *Item) error {
	if it.ID == "" {
		return fmt.Errorf("item id required")
	}
	if it.CreatedAt == 0 {
		it.CreatedAt = time.Now().UnixMilli()
	}
	if it.OccurredAt == 0 {
		it.OccurredAt = it.CreatedAt
	}

	_, err := db.Exec(`
		INSERT INTO items (id, category, source, content, occurred_at, created_at, importance)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			source = excluded.source,
			content = excluded.content,
			occurred_at = excluded.occurred_at,
			importance = excluded.importance
	`, it.ID, it.Category, it.Source, it.Content, it.OccurredAt, it.CreatedAt, it.Importance)
	if err != nil {
		return fmt.Errorf("save item %s: %w", it.ID, err)
	}
	return nil
}

// GetItem returns an item by id, or nil if it doesn't exist.
func (db *DB) GetItem(id string) (*Item, error) {
	var it Item
	err := db.QueryRow(`
		SELECT id, category, source, content, occurred_at, created_at, importance
		FROM items WHERE id = ?
	`, id).Scan(&it.ID, &it.Category, &it.Source, &it.Content, &it.OccurredAt, &it.CreatedAt, &it.Importance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &it, nil
}

// ListItems returns all items, most recently occurred first.
func (db *DB) ListItems() ([]Item, error) {
	return db.queryItems(`
		SELECT id, category, source, content, occurred_at, created_at, importance
		FROM items ORDER BY occurred_at DESC, id
	`)
}

// ListByCategory returns all items in one category, most recently
// occurred first.
func (db *DB) ListByCategory(category string) ([]Item, error) {
	return db.queryItems(`
		SELECT id, category, source, content, occurred_at, created_at, importance
		FROM items WHERE category = ? ORDER BY occurred_at DESC, id
	`, category)
}

// DeleteItem removes an item and, via cascade, its feedback rows.
// Returns true if a row was deleted.
func (db *DB) DeleteItem(id string) (bool, error) {
	res, err := db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (db *DB) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Category, &it.Source, &it.Content, &it.OccurredAt, &it.CreatedAt, &it.Importance); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
