package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/keyring"
	"github.com/julianstephens/remindr/internal/migration"
	"github.com/julianstephens/remindr/migrations"
)

// ErrEmbeddedCredentials is returned for connection strings that carry a password.
var ErrEmbeddedCredentials = errors.New("connection strings with embedded passwords are not allowed; use REMINDR_DB_CONNECTION, the OS keyring, or .pgpass")

type PostgresStore struct {
	connStr string
	db      *sql.DB
}

func NewPostgresStore(connStr string) *PostgresStore {
	return &PostgresStore{
		connStr: connStr,
	}
}

func (s *PostgresStore) Init(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	runner, err := migration.New(db, subFS, migration.Postgres)
	if err == nil {
		_, err = runner.Apply(ctx)
	}
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, ErrNotInitialized
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return ErrNotInitialized
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsPostgresDSN reports whether s looks like a PostgreSQL connection URL.
func IsPostgresDSN(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// HasEmbeddedCredentials reports whether a connection string carries a password, either
// in the URL userinfo or as a password query parameter or keyword.
func HasEmbeddedCredentials(connStr string) bool {
	if IsPostgresDSN(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			// Unparseable URLs are refused rather than passed through
			return true
		}
		if _, ok := u.User.Password(); ok {
			return true
		}
		return u.Query().Get("password") != ""
	}

	for _, field := range strings.Fields(connStr) {
		if k, _, ok := strings.Cut(field, "="); ok && strings.EqualFold(k, "password") {
			return true
		}
	}
	return false
}

// ResolveConnectionString picks the PostgreSQL connection string: the configured dsn,
// then the REMINDR_DB_CONNECTION environment variable, then the OS keyring. A configured
// dsn must not embed a password.
func ResolveConnectionString(dsn string) (string, error) {
	if dsn != "" {
		if HasEmbeddedCredentials(dsn) {
			return "", ErrEmbeddedCredentials
		}
		return dsn, nil
	}

	if env := os.Getenv(constants.DBConnectionEnv); env != "" {
		return env, nil
	}

	connStr, err := keyring.Get(keyring.PostgresConnection)
	if err != nil {
		return "", fmt.Errorf("no PostgreSQL connection string configured: %w", err)
	}
	return connStr, nil
}
