// Package storage provides the key-value backends reminders are persisted through.
package storage

import (
	"context"
	"errors"
)

// ErrNotInitialized is returned when a backend is used before Init.
var ErrNotInitialized = errors.New("storage not initialized")

// KV is a string key-value store. Values are written whole; there are no partial updates.
type KV interface {
	// Init prepares the backend (directories, schema, connections). It is idempotent.
	Init(ctx context.Context) error
	// Get returns the value stored under key. found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error
	Close() error
}
