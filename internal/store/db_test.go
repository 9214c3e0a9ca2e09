package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMemory(t *testing.T) {
	db := testDB(t)
	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion = %d, want 3", v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "items", "feedback", "runs"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestItemConstraints(t *testing.T) {
	db := testDB(t)

	// Valid insert
	_, err := db.Exec(`
		INSERT INTO items (id, category, source, content, occurred_at, created_at, importance)
		VALUES ('item-1', 'health', 'voice', 'morning walk logged', 1000, 1000, 50)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Invalid category
	_, err = db.Exec(`
		INSERT INTO items (id, category, source, content, occurred_at, created_at, importance)
		VALUES ('item-2', 'invalid', 'voice', 'x', 1000, 1000, 50)
	`)
	if err == nil {
		t.Error("expected error for invalid category, got nil")
	}

	// Importance out of range
	_, err = db.Exec(`
		INSERT INTO items (id, category, source, content, occurred_at, created_at, importance)
		VALUES ('item-3', 'health', 'voice', 'x', 1000, 1000, 150)
	`)
	if err == nil {
		t.Error("expected error for importance 150, got nil")
	}
}

func TestFeedbackConstraints(t *testing.T) {
	db := testDB(t)

	_, err := db.Exec(`
		INSERT INTO items (id, category, source, content, occurred_at, created_at, importance)
		VALUES ('item-1', 'health', 'voice', 'morning walk logged', 1000, 1000, 50)
	`)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}

	// Invalid signal
	_, err = db.Exec(`
		INSERT INTO feedback (item_id, signal, created_at) VALUES ('item-1', 'loved', 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid signal, got nil")
	}

	// Cascade delete
	if err := db.SetFeedback("item-1", "pinned"); err != nil {
		t.Fatalf("SetFeedback: %v", err)
	}
	if _, err := db.DeleteItem("item-1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("feedback rows after cascade delete = %d, want 0", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 3", v)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db := testDB(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}
