package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/remindr/internal/backup"
	"github.com/julianstephens/remindr/internal/config"
	"github.com/julianstephens/remindr/internal/constants"
	apperrors "github.com/julianstephens/remindr/internal/errors"
	"github.com/julianstephens/remindr/internal/logger"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/notifier"
	"github.com/julianstephens/remindr/internal/reminders"
	"github.com/julianstephens/remindr/internal/storage"
)

// Channel is where notifications are shown.
type Channel interface {
	notifier.Prober
	notifier.Deliverer
}

type Context struct {
	Config     *config.Config
	ConfigPath string

	KV        storage.KV
	Queue     *notifier.Queue
	Channel   Channel
	Reminders *reminders.Store

	Out io.Writer
	Now func() time.Time

	closers []io.Closer
}

// Open connects the configured storage backend and the notification queue, loads the
// reminder list and asks for notification permission.
func (c *Context) Open(ctx context.Context) error {
	if c.Config == nil {
		return errors.New("configuration not loaded")
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	kv, err := storage.New(c.Config.StorageOptions())
	if err != nil {
		return err
	}
	if err := kv.Init(ctx); err != nil {
		return apperrors.WithHint(
			fmt.Errorf("failed to open %s storage: %w", c.Config.Storage.Backend, err),
			"run 'remindr init' or check the storage section of your config")
	}
	c.KV = kv
	c.closers = append(c.closers, kv)

	db, err := storage.OpenSQLite(ctx, c.Config.Notifications.QueuePath)
	if err != nil {
		c.Close()
		return fmt.Errorf("failed to open notification queue: %w", err)
	}
	c.closers = append(c.closers, db)
	c.Queue = notifier.NewQueue(db)

	if c.Channel == nil {
		c.Channel = notifier.NewTray(c.Config.Notifications.DurationMs)
	}

	c.attach(ctx)
	return nil
}

// attach builds the reminder store over the already opened KV and queue.
func (c *Context) attach(ctx context.Context) {
	sched := notifier.NewScheduler(c.Queue, c.Channel, c.Config.Notifications.Enabled)
	c.Reminders = reminders.New(c.KV,
		reminders.WithKey(c.Config.Storage.Key),
		reminders.WithScheduler(sched),
		reminders.WithClock(c.Now),
	)
	c.Reminders.Load(ctx)
	c.Reminders.RequestNotifications(ctx)
}

// Close releases storage handles in reverse opening order.
func (c *Context) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if len(errs) > 0 {
		logger.Warn("Failed to close storage", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}

// Backups returns the backup manager for the configured reminder list.
func (c *Context) Backups() *backup.Manager {
	dir := c.Config.Storage.BackupDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(c.Config.Notifications.QueuePath), "backups")
	}
	return backup.NewManager(c.KV, c.Config.Storage.Key, dir)
}

// PerformAutomaticBackup creates a backup and returns its path, or "" when there was
// nothing to back up or the backup failed. Failures are logged, not returned.
func (c *Context) PerformAutomaticBackup(ctx context.Context) string {
	path, err := c.Backups().CreateBackup(ctx)
	if err != nil {
		if !errors.Is(err, backup.ErrNothingToBackup) {
			logger.Warn("Automatic backup failed", "error", err)
		}
		return ""
	}
	return path
}

// ParseWeekdays parses a comma-separated list of weekdays, given as names or as
// numbers 1 (Monday) through 7 (Sunday).
func ParseWeekdays(s string) ([]models.Weekday, error) {
	dayMap := map[string]models.Weekday{
		"mon":       models.Monday,
		"monday":    models.Monday,
		"tue":       models.Tuesday,
		"tuesday":   models.Tuesday,
		"wed":       models.Wednesday,
		"wednesday": models.Wednesday,
		"thu":       models.Thursday,
		"thursday":  models.Thursday,
		"fri":       models.Friday,
		"friday":    models.Friday,
		"sat":       models.Saturday,
		"saturday":  models.Saturday,
		"sun":       models.Sunday,
		"sunday":    models.Sunday,
	}

	var days []models.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if d, ok := dayMap[part]; ok {
			days = append(days, d)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || !models.Weekday(num).Valid() {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		days = append(days, models.Weekday(num))
	}
	return days, nil
}

// ParseWhen parses a reminder time: "HH:MM" (the next such time after now),
// "YYYY-MM-DD HH:MM" in local time, or RFC3339.
func ParseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	now = now.Local()

	if t, err := time.ParseInLocation(constants.TimeFormat, s, time.Local); err == nil {
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}
	if t, err := time.ParseInLocation(constants.DateTimeFormat, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use HH:MM, \"YYYY-MM-DD HH:MM\" or RFC3339)", s)
}

// ResolveID finds the reminder whose id equals ref or, failing that, is the only one
// starting with ref. Matching ignores case.
func ResolveID(list []models.Reminder, ref string) (models.Reminder, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return models.Reminder{}, errors.New("reminder id is required")
	}

	var matches []models.Reminder
	for _, r := range list {
		id := strings.ToUpper(r.ID)
		if id == ref {
			return r, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return models.Reminder{}, apperrors.WithHint(fmt.Errorf("reminder not found: %s", ref), "run 'remindr list' to see reminder ids")
	case 1:
		return matches[0], nil
	default:
		return models.Reminder{}, fmt.Errorf("reminder id %s is ambiguous (%d matches)", ref, len(matches))
	}
}
