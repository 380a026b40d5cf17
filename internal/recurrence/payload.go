package recurrence

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/remindr/internal/models"
)

// ErrInvalidInput is wrapped by Build when the form input cannot produce a reminder.
var ErrInvalidInput = errors.New("invalid reminder input")

// Input is the raw content of the add-reminder form.
type Input struct {
	Title    string
	Priority string
	Mode     models.Mode
	// IntervalRaw is the interval as typed, used by the every-minutes and every-hours modes.
	IntervalRaw  string
	SelectedDays []models.Weekday
	// Time is the picked instant. Repeating modes keep only its hour and minute.
	Time time.Time
}

// Validate reports the first reason the input cannot be saved.
func Validate(in Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if _, err := models.ParsePriority(in.Priority); err != nil {
		return err
	}

	switch in.Mode {
	case models.ModeNone:
		if in.Time.IsZero() {
			return fmt.Errorf("a date and time is required for reminders that do not repeat")
		}
	case models.ModeEveryMinutes, models.ModeEveryHours:
		if _, err := ParseInterval(in.IntervalRaw); err != nil {
			return err
		}
	case models.ModeDaily:
	case models.ModeWeekly:
		if len(in.SelectedDays) == 0 {
			return fmt.Errorf("select at least one day for weekly reminders")
		}
		for _, d := range in.SelectedDays {
			if !d.Valid() {
				return fmt.Errorf("invalid weekday %d (must be 1-7)", d)
			}
		}
	default:
		return fmt.Errorf("unknown recurrence mode %q", in.Mode)
	}

	return nil
}

// CanSave reports whether the input is complete enough to save.
func CanSave(in Input) bool {
	return Validate(in) == nil
}

// ParseInterval parses a typed interval. It must be a finite, positive, whole number.
func ParseInterval(raw string) (int, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0, fmt.Errorf("interval must be a positive number, got %q", raw)
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("interval must be a whole number, got %q", raw)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("interval %q is too large", raw)
	}
	return int(n), nil
}

// Build turns form input into a reminder payload. The caller attaches the id.
func Build(in Input) (models.Payload, error) {
	if err := Validate(in); err != nil {
		return models.Payload{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	priority, _ := models.ParsePriority(in.Priority)
	p := models.Payload{
		Title:    strings.TrimSpace(in.Title),
		Priority: priority,
	}

	var (
		rule models.Recurrence
		err  error
	)
	hour, minute := in.Time.Hour(), in.Time.Minute()

	switch in.Mode {
	case models.ModeNone:
		at := in.Time
		p.Time = &at
		rule = models.None{}
	case models.ModeEveryMinutes:
		n, _ := ParseInterval(in.IntervalRaw)
		rule, err = models.NewEveryMinutes(n)
	case models.ModeEveryHours:
		n, _ := ParseInterval(in.IntervalRaw)
		rule, err = models.NewEveryHours(n)
	case models.ModeDaily:
		rule, err = models.NewDaily(hour, minute)
	case models.ModeWeekly:
		rule, err = models.NewWeekly(normalizeDays(in.SelectedDays), hour, minute)
	}
	if err != nil {
		return models.Payload{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p.Recurrence = rule
	return p, nil
}

// normalizeDays returns the days deduplicated in ascending order.
func normalizeDays(days []models.Weekday) []models.Weekday {
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
