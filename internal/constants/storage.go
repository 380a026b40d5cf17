package constants

// StorageBackend names a key-value persistence implementation.
type StorageBackend string

const (
	BackendFile     StorageBackend = "file"
	BackendSQLite   StorageBackend = "sqlite"
	BackendPostgres StorageBackend = "postgres"
	BackendRedis    StorageBackend = "redis"
	BackendMemory   StorageBackend = "memory"

	DefaultStoragePath = "~/.config/remindr/reminders.json"
	DefaultQueuePath   = "~/.config/remindr/remindr.db"
	DefaultRedisAddr   = "localhost:6379"

	// DBConnectionEnv supplies the PostgreSQL connection string when it is not in the keyring
	DBConnectionEnv = "REMINDR_DB_CONNECTION"
	// RedisPasswordEnv supplies the redis password when the address does not carry one
	RedisPasswordEnv = "REMINDR_REDIS_PASSWORD"
	// ConfigEnvPrefix prefixes environment overrides of configuration keys
	ConfigEnvPrefix = "REMINDR_"
)
