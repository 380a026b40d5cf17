// Package backup keeps timestamped snapshots of the persisted reminder list. Snapshots
// are read from and restored to any storage backend through its key-value interface.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/logger"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/storage"
)

const (
	// MaxBackups is the maximum number of backups to keep
	MaxBackups = 14
	// BackupFilePrefix is the prefix for backup files
	BackupFilePrefix = constants.AppName + "-"
	// BackupFileSuffix is the suffix for backup files
	BackupFileSuffix = ".json"
)

// ErrNothingToBackup is returned when no reminder list has been persisted yet.
var ErrNothingToBackup = errors.New("no reminders have been saved yet")

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
	Count     int
}

// Manager handles backup operations for the list stored under one key.
type Manager struct {
	kv        storage.KV
	key       string
	backupDir string
	now       func() time.Time
}

func NewManager(kv storage.KV, key, backupDir string) *Manager {
	return &Manager{
		kv:        kv,
		key:       key,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup snapshots the current list and rotates old backups.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	return m.createBackup(ctx, false)
}

// skipRotation keeps the pre-restore snapshot from pushing out the backup being restored.
func (m *Manager) createBackup(ctx context.Context, skipRotation bool) (string, error) {
	raw, found, err := m.kv.Get(ctx, m.key)
	if err != nil {
		return "", fmt.Errorf("failed to read reminders: %w", err)
	}
	if !found {
		return "", ErrNothingToBackup
	}

	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath, err := m.nextPath()
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(backupPath, []byte(raw)); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	logger.Debug("Created backup", "path", backupPath)
	return backupPath, nil
}

// nextPath picks an unused file name, adding seconds and then a counter on collision.
func (m *Manager) nextPath() (string, error) {
	now := m.now()
	candidate := func(stamp string) string {
		return filepath.Join(m.backupDir, BackupFilePrefix+stamp+BackupFileSuffix)
	}

	p := candidate(now.Format("20060102-1504"))
	if !exists(p) {
		return p, nil
	}
	stamp := now.Format("20060102-150405")
	p = candidate(stamp)
	for counter := 1; exists(p); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		p = candidate(fmt.Sprintf("%s-%d", stamp, counter))
	}
	return p, nil
}

// ListBackups returns all backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, BackupFilePrefix) || !strings.HasSuffix(name, BackupFileSuffix) {
			continue
		}

		timestamp, ok := parseStamp(strings.TrimSuffix(strings.TrimPrefix(name, BackupFilePrefix), BackupFileSuffix))
		if !ok {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		list, err := readList(path)
		if err != nil {
			logger.Warn("Skipping unreadable backup", "path", path, "error", err)
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      path,
			Timestamp: timestamp,
			Size:      info.Size(),
			Count:     len(list),
		})
	}

	slices.SortStableFunc(backups, func(a, b BackupInfo) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.Path, a.Path)
	})
	return backups, nil
}

// parseStamp reads YYYYMMDD-HHMM or YYYYMMDD-HHMMSS, ignoring a trailing -N counter.
func parseStamp(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		s = parts[0] + "-" + parts[1]
	}
	for _, layout := range []string{"20060102-1504", "20060102-150405"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the stored list with the one in backupPath. The current list,
// if any, is backed up first; its path is returned, or "" when there was nothing to save.
func (m *Manager) RestoreBackup(ctx context.Context, backupPath string) (string, error) {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to read backup: %w", err)
	}
	if _, err := decodeList(data); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	current, err := m.createBackup(ctx, true)
	if err != nil && !errors.Is(err, ErrNothingToBackup) {
		return "", fmt.Errorf("failed to back up current reminders before restore: %w", err)
	}

	if err := m.kv.Set(ctx, m.key, string(data)); err != nil {
		return current, fmt.Errorf("failed to restore reminders: %w", err)
	}
	return current, nil
}

func readList(path string) ([]models.Reminder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

func decodeList(data []byte) ([]models.Reminder, error) {
	var list []models.Reminder
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
