package migration

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/remindr/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func files(m map[string]string) fs.FS {
	fsys := fstest.MapFS{}
	for name, body := range m {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func newRunner(t *testing.T, db *sql.DB, m map[string]string) *Runner {
	t.Helper()
	r, err := New(db, files(m), SQLite)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestParse(t *testing.T) {
	got, err := Parse(files(map[string]string{
		"002_queue.sql": "CREATE TABLE b (id INTEGER);",
		"001_kv.sql":    "CREATE TABLE a (id INTEGER);",
		"README.md":     "ignored",
	}))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "kv" || got[1].Version != 2 {
		t.Errorf("unexpected migrations: %+v", got)
	}
}

func TestParse_InvalidNames(t *testing.T) {
	tests := map[string]map[string]string{
		"missing underscore": {"001.sql": "SELECT 1;"},
		"missing name":       {"001_.sql": "SELECT 1;"},
		"non-numeric":        {"abc_init.sql": "SELECT 1;"},
		"zero version":       {"000_init.sql": "SELECT 1;"},
		"duplicate":          {"001_a.sql": "SELECT 1;", "01_b.sql": "SELECT 1;"},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := New(setupTestDB(t), files(m), SQLite); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApply_Incremental(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	r := newRunner(t, db, map[string]string{"001_a.sql": "CREATE TABLE a (id INTEGER);"})
	if n, err := r.Apply(ctx); err != nil || n != 1 {
		t.Fatalf("first apply: n=%d err=%v", n, err)
	}

	r = newRunner(t, db, map[string]string{
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
		"002_b.sql": "CREATE TABLE b (id INTEGER);",
	})
	if n, err := r.Apply(ctx); err != nil || n != 1 {
		t.Fatalf("second apply: n=%d err=%v", n, err)
	}
	if n, err := r.Apply(ctx); err != nil || n != 0 {
		t.Errorf("re-apply should be a no-op, got n=%d err=%v", n, err)
	}

	if v, _ := r.Current(ctx); v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}
	history, err := r.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[1].Name != "b" || history[1].AppliedAt.IsZero() {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestApply_RollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	r := newRunner(t, db, map[string]string{
		"001_ok.sql":     "CREATE TABLE ok (id INTEGER);",
		"002_broken.sql": "CREATE TABLE broken (id INTEGER",
	})

	n, err := r.Apply(ctx)
	if err == nil {
		t.Fatal("expected error for broken migration")
	}
	if n != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", n)
	}
	if v, _ := r.Current(ctx); v != 1 {
		t.Errorf("expected version to stay at 1, got %d", v)
	}
}

func TestApply_RefusesNewerSchema(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	newer := newRunner(t, db, map[string]string{
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
		"002_b.sql": "CREATE TABLE b (id INTEGER);",
	})
	if _, err := newer.Apply(ctx); err != nil {
		t.Fatal(err)
	}

	older := newRunner(t, db, map[string]string{"001_a.sql": "CREATE TABLE a (id INTEGER);"})
	if _, err := older.Apply(ctx); err == nil || !strings.Contains(err.Error(), "newer than this remindr supports") {
		t.Errorf("expected newer schema error, got %v", err)
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatalf("fs.Sub failed: %v", err)
	}
	db := setupTestDB(t)
	r, err := New(db, sub, SQLite)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Apply(context.Background()); err != nil {
		t.Fatalf("embedded migrations failed: %v", err)
	}
	for _, table := range []string{"kv", "notifications"} {
		var count int
		if err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("table %s missing after migration", table)
		}
	}
}

func TestEmbeddedPostgresMigrationsParse(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	ms, err := Parse(sub)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ms) == 0 || !strings.Contains(ms[0].SQL, "CREATE TABLE IF NOT EXISTS kv") {
		t.Errorf("unexpected postgres migrations: %+v", ms)
	}
}
