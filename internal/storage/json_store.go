package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore keeps every key in a single JSON document on disk.
type JSONStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.values = make(map[string]string)
			return s.save()
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	values := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse storage %s: %w", s.path, err)
		}
	}
	s.values = values
	return nil
}

func (s *JSONStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return "", false, ErrNotInitialized
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *JSONStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		return ErrNotInitialized
	}
	s.values[key] = value
	return s.save()
}

func (s *JSONStore) Close() error {
	return nil
}

// Path returns the file backing the store.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	// Write to a sibling file and rename so a crash never leaves a truncated document
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}
