// Package keyring keeps backend credentials in the OS keyring, one entry per secret under
// the remindr service name.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/remindr/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret is the keyring account a credential is stored under.
type Secret string

const (
	PostgresConnection Secret = "database-connection"
	RedisPassword      Secret = "redis-password"
)

// Secrets lists every credential remindr knows about.
var Secrets = []Secret{PostgresConnection, RedisPassword}

// SecretFor maps a storage backend name to its secret. Empty means postgres.
func SecretFor(backend string) (Secret, error) {
	switch constants.StorageBackend(strings.ToLower(backend)) {
	case "", constants.BackendPostgres:
		return PostgresConnection, nil
	case constants.BackendRedis:
		return RedisPassword, nil
	default:
		return "", fmt.Errorf("backend %q keeps no credentials in the keyring", backend)
	}
}

func (s Secret) Label() string {
	switch s {
	case PostgresConnection:
		return "PostgreSQL connection string"
	case RedisPassword:
		return "Redis password"
	default:
		return string(s)
	}
}

// Get returns the stored value, ErrNotFound, or an error wrapping ErrKeyringUnavailable.
func Get(s Secret) (string, error) {
	v, err := keyring.Get(constants.AppName, string(s))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func Set(s Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", strings.ToLower(s.Label()))
	}
	if err := keyring.Set(constants.AppName, string(s), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", s.Label(), err)
	}
	return nil
}

func Delete(s Secret) error {
	if err := keyring.Delete(constants.AppName, string(s)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", s.Label(), err)
	}
	return nil
}

// Stored reports which secrets have a value. The first keyring failure other than a
// missing entry is returned.
func Stored() (map[Secret]bool, error) {
	stored := make(map[Secret]bool, len(Secrets))
	for _, s := range Secrets {
		_, err := Get(s)
		switch {
		case err == nil:
			stored[s] = true
		case errors.Is(err, ErrNotFound):
			stored[s] = false
		default:
			return nil, err
		}
	}
	return stored, nil
}
