package database

import (
	"os"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tmpFile := "test_database.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Dialect() != DialectSQLite {
		t.Errorf("Expected sqlite dialect for file path, got %s", db.Dialect())
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestLockClause(t *testing.T) {
	db := &DB{dialect: DialectMySQL}
	if db.LockClause() != " FOR UPDATE" {
		t.Errorf("Expected FOR UPDATE clause for MySQL, got %q", db.LockClause())
	}

	db = &DB{dialect: DialectSQLite}
	if db.LockClause() != "" {
		t.Errorf("Expected empty lock clause for SQLite, got %q", db.LockClause())
	}
}

func TestInitialize(t *testing.T) {
	tmpFile := "test_init.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	tables := []string{
		"users",
		"organizations",
		"org_members",
		"boards",
		"board_members",
		"lists",
		"cards",
		"card_members",
		"card_comments",
	}

	for _, table := range tables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		err := db.QueryRow(query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestInitialize_Indexes(t *testing.T) {
	tmpFile := "test_indexes.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	indexes := []string{
		"idx_org_members_user",
		"idx_boards_org",
		"idx_lists_board_position",
		"idx_cards_list_position",
		"idx_card_comments_card",
	}

	for _, index := range indexes {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='index' AND name=?"
		err := db.QueryRow(query, index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s was not created: %v", index, err)
		}
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	tmpFile := "test_idempotent.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := db.Initialize(); err != nil {
			t.Fatalf("Initialization %d failed: %v", i+1, err)
		}
	}
}

func TestInitialize_InsertRoundTrip(t *testing.T) {
	tmpFile := "test_roundtrip.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	now := time.Now().UTC()

	_, err = db.Exec(`INSERT INTO boards (id, org_id, title, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"board-1", "org-1", "Launch Plan", "user-1", now, now)
	if err != nil {
		t.Fatalf("Failed to insert board: %v", err)
	}

	_, err = db.Exec(`INSERT INTO lists (id, board_id, title, position, created_at) VALUES (?, ?, ?, ?, ?)`,
		"list-1", "board-1", "To Do", 1, now)
	if err != nil {
		t.Fatalf("Failed to insert list: %v", err)
	}

	_, err = db.Exec(`INSERT INTO cards (id, list_id, title, position, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"card-1", "list-1", "Write copy", 1, "user-1", now, now)
	if err != nil {
		t.Fatalf("Failed to insert card: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM cards WHERE list_id = ?", "list-1").Scan(&count); err != nil {
		t.Fatalf("Failed to query cards: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 card, got %d", count)
	}
}

func TestColumnExists(t *testing.T) {
	tmpFile := "test_columns.db"
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	exists, err := db.columnExists("cards", "position")
	if err != nil {
		t.Fatalf("columnExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected cards.position to exist")
	}

	exists, err = db.columnExists("cards", "no_such_column")
	if err != nil {
		t.Fatalf("columnExists failed: %v", err)
	}
	if exists {
		t.Error("Expected cards.no_such_column to be missing")
	}
}

func TestIsConflict(t *testing.T) {
	if IsConflict(nil) {
		t.Error("nil error should not be a conflict")
	}
	if IsConflict(os.ErrNotExist) {
		t.Error("unrelated error should not be a conflict")
	}
}
