package storage

import (
	"fmt"

	"github.com/julianstephens/remindr/internal/constants"
)

// Options selects and configures a backend.
type Options struct {
	Backend   constants.StorageBackend
	Path      string
	DSN       string
	RedisAddr string
	RedisDB   int
	// KeyPrefix namespaces keys on shared backends (redis).
	KeyPrefix string
}

// New returns the backend described by opts. The backend is not initialised.
func New(opts Options) (KV, error) {
	switch opts.Backend {
	case constants.BackendFile, "":
		return NewJSONStore(opts.Path), nil
	case constants.BackendSQLite:
		return NewSQLiteStore(opts.Path), nil
	case constants.BackendPostgres:
		connStr, err := ResolveConnectionString(opts.DSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(connStr), nil
	case constants.BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisDB, opts.KeyPrefix)
	case constants.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
