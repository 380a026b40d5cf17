package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/storage"
)

type Config struct {
	Storage       StorageConfig       `koanf:"storage"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Log           LogConfig           `koanf:"log"`
}

type StorageConfig struct {
	Backend   string `koanf:"backend"`
	Path      string `koanf:"path"`
	DSN       string `koanf:"dsn"` // PostgreSQL only; must not embed a password
	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`
	Key       string `koanf:"key"`
	BackupDir string `koanf:"backup_dir"`
}

type NotificationsConfig struct {
	Enabled      bool          `koanf:"enabled"`
	QueuePath    string        `koanf:"queue_path"`
	PollInterval time.Duration `koanf:"poll_interval"`
	DurationMs   int           `koanf:"duration_ms"`
}

type LogConfig struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level"`
	Debug bool   `koanf:"debug"`
}

// Load layers defaults, the YAML file at configPath (when it exists) and REMINDR_*
// environment variables, in that order. A double underscore in a variable name separates
// key levels: REMINDR_STORAGE__BACKEND sets storage.backend.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(constants.ConfigEnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath(constants.StorageBackend(cfg.Storage.Backend))
	}
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Storage.BackupDir = expandPath(cfg.Storage.BackupDir)
	cfg.Notifications.QueuePath = expandPath(cfg.Notifications.QueuePath)
	cfg.Log.Dir = expandPath(cfg.Log.Dir)

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch constants.StorageBackend(c.Storage.Backend) {
	case constants.BackendFile, constants.BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case constants.BackendPostgres:
		if c.Storage.DSN != "" && storage.HasEmbeddedCredentials(c.Storage.DSN) {
			return storage.ErrEmbeddedCredentials
		}
	case constants.BackendRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis backend")
		}
	case constants.BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s (supported: file, sqlite, postgres, redis, memory)", c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	if c.Notifications.PollInterval < time.Second {
		return fmt.Errorf("notifications.poll_interval must be at least 1s")
	}
	if c.Notifications.DurationMs <= 0 {
		return fmt.Errorf("notifications.duration_ms must be positive")
	}
	if c.Notifications.QueuePath == "" {
		return fmt.Errorf("notifications.queue_path is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn or error, got %q", c.Log.Level)
	}

	return nil
}

// WriteDefault writes the default configuration as YAML to path. An existing file is
// left alone unless force is set. It reports whether the file was written.
func WriteDefault(path string, force bool) (bool, error) {
	path = expandPath(path)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	k := koanf.New(".")
	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return false, fmt.Errorf("failed to load defaults: %w", err)
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return false, fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// StorageOptions converts the storage section into backend options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:   constants.StorageBackend(c.Storage.Backend),
		Path:      c.Storage.Path,
		DSN:       c.Storage.DSN,
		RedisAddr: c.Storage.RedisAddr,
		RedisDB:   c.Storage.RedisDB,
		KeyPrefix: constants.AppName + ":",
	}
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, constants.ConfigEnvPrefix)), "__", ".")
}

func defaultStoragePath(backend constants.StorageBackend) string {
	if backend == constants.BackendSQLite {
		return constants.DefaultQueuePath
	}
	return constants.DefaultStoragePath
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
