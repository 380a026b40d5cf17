package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/remindr/internal/models"
)

var (
	// ErrFireTimeInPast is returned for a one-shot reminder whose instant has passed.
	// Such reminders are not scheduled.
	ErrFireTimeInPast = errors.New("fire time is in the past")
	// ErrNoFireTime is returned for a one-shot reminder without an instant.
	ErrNoFireTime = errors.New("reminder has no fire time")
)

// NotificationTitle is the title shown on a fired notification.
func NotificationTitle(p models.Priority) string {
	return fmt.Sprintf("🔔 %s Reminder", strings.ToUpper(string(p)))
}

// Content returns the notification content of a reminder.
func Content(r models.Reminder) models.Content {
	return models.Content{
		Title: NotificationTitle(r.Priority),
		Body:  r.Title,
		Sound: true,
	}
}

// Plan translates a reminder into the trigger instructions that fire it. Weekly rules
// fan out into one instruction per day.
func Plan(r models.Reminder, now time.Time) ([]models.Instruction, error) {
	if r.Recurrence == nil {
		return nil, fmt.Errorf("reminder %s: %w: missing recurrence", r.ID, models.ErrInvalidRule)
	}
	if err := r.Recurrence.Validate(); err != nil {
		return nil, fmt.Errorf("reminder %s: %w", r.ID, err)
	}

	content := Content(r)
	one := func(t models.Trigger) []models.Instruction {
		return []models.Instruction{{ReminderID: r.ID, Content: content, Trigger: t}}
	}

	switch v := r.Recurrence.(type) {
	case models.None:
		if r.Time == nil {
			return nil, fmt.Errorf("reminder %s: %w", r.ID, ErrNoFireTime)
		}
		if r.Time.Before(now) {
			return nil, fmt.Errorf("reminder %s at %s: %w", r.ID, r.Time.Format(time.RFC3339), ErrFireTimeInPast)
		}
		return one(models.OneShotAt{At: *r.Time}), nil
	case models.EveryMinutes:
		return one(models.Interval{Seconds: v.Minutes * 60, Repeats: true}), nil
	case models.EveryHours:
		return one(models.Interval{Seconds: v.Hours * 3600, Repeats: true}), nil
	case models.Daily:
		return one(models.DailyAt{Hour: v.Hour, Minute: v.Minute}), nil
	case models.Weekly:
		out := make([]models.Instruction, 0, len(v.Days))
		for _, d := range v.Days {
			out = append(out, models.Instruction{
				ReminderID: r.ID,
				Content:    content,
				Trigger:    models.WeeklyAt{Weekday: d, Hour: v.Hour, Minute: v.Minute},
			})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("reminder %s: unsupported recurrence %T", r.ID, r.Recurrence)
	}
}
