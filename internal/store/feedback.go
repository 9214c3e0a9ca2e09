package store

import (
	"fmt"
	"time"

	"github.com/curatord/curator/internal/selector"
)

// Valid reinforcement signals.
var validSignals = map[string]bool{
	"pinned":    true,
	"reused":    true,
	"corrected": true,
	"dismissed": true,
}

// Feedback holds the four disjoint reinforcement id sets the scorer
// consumes.
type Feedback struct {
	Pinned    selector.IDSet
	Reused    selector.IDSet
	Corrected selector.IDSet
	Dismissed selector.IDSet
}

// SetFeedback records a reinforcement signal for an item. Recording the
// same signal twice is a no-op.
func (db *DB) SetFeedback(itemID, signal string) error {
	if !validSignals[signal] {
		return fmt.Errorf("invalid feedback signal %q", signal)
	}
	_, err := db.Exec(`
		INSERT INTO feedback (item_id, signal, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id, signal) DO NOTHING
	`, itemID, signal, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set feedback %s %s: %w", itemID, signal, err)
	}
	return nil
}

// ClearFeedback removes one signal from an item.
func (db *DB) ClearFeedback(itemID, signal string) error {
	if !validSignals[signal] {
		return fmt.Errorf("invalid feedback signal %q", signal)
	}
	_, err := db.Exec("DELETE FROM feedback WHERE item_id = ? AND signal = ?", itemID, signal)
	if err != nil {
		return fmt.Errorf("clear feedback %s %s: %w", itemID, signal, err)
	}
	return nil
}

// FeedbackSets loads every recorded signal into the scorer's id sets.
func (db *DB) FeedbackSets() (Feedback, error) {
	fb := Feedback{
		Pinned:    selector.IDSet{},
		Reused:    selector.IDSet{},
		Corrected: selector.IDSet{},
		Dismissed: selector.IDSet{},
	}

	rows, err := db.Query("SELECT item_id, signal FROM feedback")
	if err != nil {
		return fb, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, signal string
		if err := rows.Scan(&itemID, &signal); err != nil {
			return fb, fmt.Errorf("scan feedback: %w", err)
		}
		switch signal {
		case "pinned":
			fb.Pinned[itemID] = true
		case "reused":
			fb.Reused[itemID] = true
		case "corrected":
			fb.Corrected[itemID] = true
		case "dismissed":
			fb.Dismissed[itemID] = true
		}
	}
	return fb, rows.Err()
}
