// Package migration brings a SQL schema up to date from numbered NNN_name.sql files. Each
// applied migration is recorded in schema_migrations with its name and time.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/remindr/internal/logger"
)

// Dialect selects the bind parameter style of the target database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) bind(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Applied is one row of the migration history.
type Applied struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

type Runner struct {
	db         *sql.DB
	dialect    Dialect
	migrations []Migration
	now        func() time.Time
}

// New reads the migrations at the root of fsys. Bad file names fail here rather than
// halfway through Apply.
func New(db *sql.DB, fsys fs.FS, dialect Dialect) (*Runner, error) {
	ms, err := Parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Runner{db: db, dialect: dialect, migrations: ms, now: time.Now}, nil
}

// Parse reads NNN_name.sql files, sorted by version. Other files are ignored.
func Parse(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var ms []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		prefix, name, ok := strings.Cut(strings.TrimSuffix(e.Name(), ".sql"), "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid migration file name %s (expected NNN_name.sql)", e.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version < 1 {
			return nil, fmt.Errorf("invalid migration version in %s", e.Name())
		}

		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		ms = append(ms, Migration{Version: version, Name: name, SQL: string(body)})
	}

	slices.SortFunc(ms, func(a, b Migration) int { return a.Version - b.Version })
	for i := 1; i < len(ms); i++ {
		if ms[i].Version == ms[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", ms[i].Version, ms[i-1].Name, ms[i].Name)
		}
	}
	return ms, nil
}

// Latest is the highest known version, 0 when there are no migrations.
func (r *Runner) Latest() int {
	if len(r.migrations) == 0 {
		return 0
	}
	return r.migrations[len(r.migrations)-1].Version
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// Current is the highest applied version, 0 for a fresh database.
func (r *Runner) Current(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// History lists applied migrations, oldest first.
func (r *Runner) History(ctx context.Context) ([]Applied, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT version, name, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration history: %w", err)
	}
	defer rows.Close()

	var out []Applied
	for rows.Next() {
		var (
			a  Applied
			at string
		)
		if err := rows.Scan(&a.Version, &a.Name, &at); err != nil {
			return nil, err
		}
		a.AppliedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Pending returns the migrations newer than the database. A database ahead of this
// build is an error: an older remindr must not write to it.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current > r.Latest() {
		return nil, fmt.Errorf("database schema version %d is newer than this remindr supports (%d); upgrade remindr", current, r.Latest())
	}

	var pending []Migration
	for _, m := range r.migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Apply runs pending migrations, each in its own transaction, and returns how many ran.
// On failure the count covers the migrations committed before it.
func (r *Runner) Apply(ctx context.Context) (int, error) {
	l := logger.For("migration")

	pending, err := r.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		l.Debug("Schema up to date", "version", r.Latest())
		return 0, nil
	}

	for i, m := range pending {
		if err := r.apply(ctx, m); err != nil {
			return i, err
		}
		l.Debug("Applied migration", "version", m.Version, "name", m.Name)
	}
	return len(pending), nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
	}
	insert := fmt.Sprintf("INSERT INTO schema_migrations (version, name, applied_at) VALUES (%s, %s, %s)",
		r.dialect.bind(1), r.dialect.bind(2), r.dialect.bind(3))
	if _, err := tx.ExecContext(ctx, insert, m.Version, m.Name, r.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}
	return tx.Commit()
}
