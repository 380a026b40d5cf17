package notifier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
)

// ErrNeverFires is returned when scheduling a trigger with no future fire time.
var ErrNeverFires = errors.New("trigger never fires")

// Entry is a scheduled notification waiting in the queue.
type Entry struct {
	ID         string
	ReminderID string
	Content    models.Content
	Trigger    models.Trigger
	// Anchor is when the entry was scheduled. Interval triggers count periods from it.
	Anchor   time.Time
	NextFire time.Time
}

// Queue persists scheduled notifications in the notifications table of the SQLite
// database.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// Schedule enqueues an instruction with its first fire time.
func (q *Queue) Schedule(ctx context.Context, in models.Instruction) error {
	if in.Trigger == nil {
		return fmt.Errorf("reminder %s: missing trigger", in.ReminderID)
	}

	now := q.now().Local()
	next, ok := recurrence.NextFire(in.Trigger, now, now)
	if !ok {
		return fmt.Errorf("reminder %s (%s): %w", in.ReminderID, in.Trigger, ErrNeverFires)
	}

	triggerJSON, err := json.Marshal(in.Trigger)
	if err != nil {
		return fmt.Errorf("failed to encode trigger: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO notifications (id, reminder_id, title, body, sound, trigger_kind, trigger_json, anchor, next_fire, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.New().String(), in.ReminderID, in.Content.Title, in.Content.Body, in.Content.Sound,
		string(in.Trigger.Kind()), string(triggerJSON),
		formatTime(now), formatTime(next), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification for reminder %s: %w", in.ReminderID, err)
	}
	return nil
}

// Due returns the entries whose next fire time is at or before now, earliest first.
func (q *Queue) Due(ctx context.Context, now time.Time) ([]Entry, error) {
	return q.query(ctx, "WHERE next_fire <= ? ORDER BY next_fire", formatTime(now))
}

// Pending returns every queued entry, earliest first.
func (q *Queue) Pending(ctx context.Context) ([]Entry, error) {
	return q.query(ctx, "ORDER BY next_fire")
}

// Advance moves a fired entry to its next fire time after now, or removes it when the
// trigger does not fire again.
func (q *Queue) Advance(ctx context.Context, e Entry, now time.Time) error {
	next, ok := recurrence.NextFire(e.Trigger, e.Anchor, now)
	if !ok {
		return q.Remove(ctx, e.ID)
	}

	_, err := q.db.ExecContext(ctx, "UPDATE notifications SET next_fire = ? WHERE id = ?", formatTime(next), e.ID)
	if err != nil {
		return fmt.Errorf("failed to advance notification %s: %w", e.ID, err)
	}
	return nil
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove notification %s: %w", id, err)
	}
	return nil
}

func (q *Queue) query(ctx context.Context, clause string, args ...any) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, reminder_id, title, body, sound, trigger_kind, trigger_json, anchor, next_fire
		FROM notifications `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			kind, trig   string
			anchor, next string
		)
		if err := rows.Scan(&e.ID, &e.ReminderID, &e.Content.Title, &e.Content.Body, &e.Content.Sound, &kind, &trig, &anchor, &next); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if e.Trigger, err = models.DecodeTrigger(models.TriggerKind(kind), []byte(trig)); err != nil {
			return nil, fmt.Errorf("notification %s: %w", e.ID, err)
		}
		if e.Anchor, err = parseTime(anchor); err != nil {
			return nil, fmt.Errorf("notification %s: invalid anchor: %w", e.ID, err)
		}
		if e.NextFire, err = parseTime(next); err != nil {
			return nil, fmt.Errorf("notification %s: invalid next fire: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// formatTime renders instants in UTC so stored values order lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

// parseTime reads a stored instant back in the local zone, where daily and weekly
// triggers keep their wall-clock time.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Local(), nil
}
