package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/keyring"
	"github.com/julianstephens/remindr/internal/logger"
)

// RedisStore keeps values as plain redis strings under a key prefix.
type RedisStore struct {
	opts   *redis.Options
	prefix string
	rdb    *redis.Client
}

// NewRedisStore targets addr, which is either host:port or a redis:// URL.
func NewRedisStore(addr string, db int, prefix string) (*RedisStore, error) {
	opts := &redis.Options{Addr: addr, DB: db}
	if u, err := redis.ParseURL(addr); err == nil {
		opts = u
	} else if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	return &RedisStore{opts: opts, prefix: prefix}, nil
}

func (s *RedisStore) Init(ctx context.Context) error {
	if s.rdb != nil {
		return nil
	}

	if s.opts.Password == "" {
		s.opts.Password = resolveRedisPassword()
	}

	rdb := redis.NewClient(s.opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", s.opts.Addr, err)
	}
	s.rdb = rdb
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.rdb == nil {
		return "", false, ErrNotInitialized
	}

	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if s.rdb == nil {
		return ErrNotInitialized
	}
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

// resolveRedisPassword reads REMINDR_REDIS_PASSWORD, then the OS keyring. An unavailable
// keyring means no password.
func resolveRedisPassword() string {
	if env := os.Getenv(constants.RedisPasswordEnv); env != "" {
		return env
	}
	pw, err := keyring.Get(keyring.RedisPassword)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Redis password lookup skipped", "error", err)
		}
		return ""
	}
	return pw
}
