package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	t.Run("StatementCommits", func(t *testing.T) {
		res, err := db.Execute(ctx,
			"INSERT INTO recipies(title, calories, protein, fat, carbs) VALUES(?, ?, ?, ?, ?)",
			"Omelette", 400.0, 30.0, 20.0, 25.0)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !res.Empty() {
			t.Errorf("Expected no rows from a plain insert, got %d", len(res.Rows))
		}
	})

	t.Run("QueryReturnsRows", func(t *testing.T) {
		res, err := db.Execute(ctx, "SELECT id, title, calories FROM recipies WHERE title = ?", "Omelette")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(res.Rows) != 1 {
			t.Fatalf("Expected 1 row, got %d", len(res.Rows))
		}
		if len(res.Columns) != 3 || res.Columns[1] != "title" {
			t.Errorf("Unexpected columns: %v", res.Columns)
		}
		title, err := String(res.Rows[0][1])
		if err != nil || title != "Omelette" {
			t.Errorf("Expected title 'Omelette', got '%s' (%v)", title, err)
		}
		kcal, err := Float64(res.Rows[0][2])
		if err != nil || kcal != 400 {
			t.Errorf("Expected 400 kcal, got %v (%v)", kcal, err)
		}
	})

	t.Run("ReturningOnConflict", func(t *testing.T) {
		query := `INSERT INTO recipies(title, calories, protein, fat, carbs) VALUES(?, ?, ?, ?, ?)
			ON CONFLICT (title) DO NOTHING RETURNING id`
		res, err := db.Execute(ctx, query, "Omelette", 1.0, 1.0, 1.0, 1.0)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !res.Empty() {
			t.Errorf("Expected a conflicting insert to return no id, got %v", res.Rows)
		}
	})

	t.Run("MalformedStatement", func(t *testing.T) {
		_, err := db.Execute(ctx, "SELEC nonsense")
		if err == nil {
			t.Fatal("Expected an error for a malformed statement, got nil")
		}
		var execErr *ExecError
		if !errors.As(err, &execErr) {
			t.Fatalf("Expected *ExecError, got %T", err)
		}
		if execErr.Query != "SELEC nonsense" {
			t.Errorf("Expected the failing query to be recorded, got '%s'", execErr.Query)
		}
	})
}

func TestRebind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM recipies WHERE id > ? LIMIT ?", "SELECT * FROM recipies WHERE id > $1 LIMIT $2"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		if got := Rebind(tt.in); got != tt.want {
			t.Errorf("Rebind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := NewSQLite(path, nil)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	first.Close()

	second, err := NewSQLite(path, nil)
	if err != nil {
		t.Fatalf("Second open failed: %v", err)
	}
	defer second.Close()
}
