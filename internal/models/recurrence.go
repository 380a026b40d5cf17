package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode is the wire discriminator of a recurrence rule.
type Mode string

const (
	ModeNone         Mode = "none"
	ModeEveryMinutes Mode = "every_x_minutes"
	ModeEveryHours   Mode = "every_x_hours"
	ModeDaily        Mode = "daily"
	ModeWeekly       Mode = "weekly"
)

// Modes lists every recurrence mode in the order the add form offers them.
var Modes = []Mode{ModeNone, ModeEveryMinutes, ModeEveryHours, ModeDaily, ModeWeekly}

// ErrInvalidRule is wrapped by every recurrence validation failure.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// ParseMode parses a mode name. Empty input means ModeNone.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ModeNone, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown recurrence mode %q", s)
}

// Label is the human name of the mode used in pickers.
func (m Mode) Label() string {
	switch m {
	case ModeNone:
		return "Does not repeat"
	case ModeEveryMinutes:
		return "Every X Minutes"
	case ModeEveryHours:
		return "Every X Hours"
	case ModeDaily:
		return "Daily at time"
	case ModeWeekly:
		return "Weekly on selected days"
	default:
		return string(m)
	}
}

// Weekday numbers days Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayLabels = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Valid reports whether d is in 1..7.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Short returns the three-letter label, or "" for an out-of-range day.
func (d Weekday) Short() string {
	if !d.Valid() {
		return ""
	}
	return weekdayLabels[d]
}

// TimeWeekday converts to the standard library numbering (Sunday=0).
func (d Weekday) TimeWeekday() time.Weekday {
	return time.Weekday(int(d) % 7)
}

// WeekdayOf returns the Monday-first weekday of t.
func WeekdayOf(t time.Time) Weekday {
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return Weekday(t.Weekday())
}

// Recurrence is the repeat policy of a reminder. The set of implementations is closed:
// None, EveryMinutes, EveryHours, Daily and Weekly.
type Recurrence interface {
	Mode() Mode
	Validate() error
	isRecurrence()
}

// None fires once at the reminder's absolute time.
type None struct{}

// EveryMinutes repeats every Minutes minutes from the time it was scheduled.
type EveryMinutes struct {
	Minutes int
}

// EveryHours repeats every Hours hours from the time it was scheduled.
type EveryHours struct {
	Hours int
}

// Daily repeats every day at a wall-clock time.
type Daily struct {
	Hour   int
	Minute int
}

// Weekly repeats on each listed weekday at a wall-clock time.
type Weekly struct {
	Days   []Weekday
	Hour   int
	Minute int
}

func (None) Mode() Mode         { return ModeNone }
func (EveryMinutes) Mode() Mode { return ModeEveryMinutes }
func (EveryHours) Mode() Mode   { return ModeEveryHours }
func (Daily) Mode() Mode        { return ModeDaily }
func (Weekly) Mode() Mode       { return ModeWeekly }

func (None) isRecurrence()         {}
func (EveryMinutes) isRecurrence() {}
func (EveryHours) isRecurrence()   {}
func (Daily) isRecurrence()        {}
func (Weekly) isRecurrence()       {}

func (None) Validate() error { return nil }

func (r EveryMinutes) Validate() error {
	if r.Minutes < 1 {
		return fmt.Errorf("%w: minutes must be positive, got %d", ErrInvalidRule, r.Minutes)
	}
	return nil
}

func (r EveryHours) Validate() error {
	if r.Hours < 1 {
		return fmt.Errorf("%w: hours must be positive, got %d", ErrInvalidRule, r.Hours)
	}
	return nil
}

func (r Daily) Validate() error {
	return validateClock(r.Hour, r.Minute)
}

func (r Weekly) Validate() error {
	if len(r.Days) == 0 {
		return fmt.Errorf("%w: weekly rule needs at least one day", ErrInvalidRule)
	}
	for _, d := range r.Days {
		if !d.Valid() {
			return fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidRule, d)
		}
	}
	return validateClock(r.Hour, r.Minute)
}

func validateClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidRule, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidRule, minute)
	}
	return nil
}

// NewEveryMinutes returns a validated EveryMinutes rule.
func NewEveryMinutes(minutes int) (EveryMinutes, error) {
	r := EveryMinutes{Minutes: minutes}
	return r, r.Validate()
}

// NewEveryHours returns a validated EveryHours rule.
func NewEveryHours(hours int) (EveryHours, error) {
	r := EveryHours{Hours: hours}
	return r, r.Validate()
}

// NewDaily returns a validated Daily rule.
func NewDaily(hour, minute int) (Daily, error) {
	r := Daily{Hour: hour, Minute: minute}
	return r, r.Validate()
}

// NewWeekly returns a validated Weekly rule. The days slice is copied.
func NewWeekly(days []Weekday, hour, minute int) (Weekly, error) {
	r := Weekly{Days: append([]Weekday(nil), days...), Hour: hour, Minute: minute}
	return r, r.Validate()
}

// CloneRecurrence returns a copy of r that shares no memory with it.
func CloneRecurrence(r Recurrence) Recurrence {
	if w, ok := r.(Weekly); ok {
		w.Days = append([]Weekday(nil), w.Days...)
		return w
	}
	return r
}

type recurrenceJSON struct {
	Mode    Mode      `json:"mode"`
	Minutes *int      `json:"minutes,omitempty"`
	Hours   *int      `json:"hours,omitempty"`
	Days    []Weekday `json:"days,omitempty"`
	Hour    *int      `json:"hour,omitempty"`
	Minute  *int      `json:"minute,omitempty"`
}

// MarshalRecurrence encodes r with only the fields of its own variant.
func MarshalRecurrence(r Recurrence) ([]byte, error) {
	if r == nil {
		r = None{}
	}
	w := recurrenceJSON{Mode: r.Mode()}
	switch v := r.(type) {
	case None:
	case EveryMinutes:
		w.Minutes = &v.Minutes
	case EveryHours:
		w.Hours = &v.Hours
	case Daily:
		w.Hour, w.Minute = &v.Hour, &v.Minute
	case Weekly:
		w.Days, w.Hour, w.Minute = v.Days, &v.Hour, &v.Minute
	default:
		return nil, fmt.Errorf("unsupported recurrence type %T", r)
	}
	return json.Marshal(w)
}

// UnmarshalRecurrence decodes and validates a rule. A missing or null rule decodes as None.
func UnmarshalRecurrence(data []byte) (Recurrence, error) {
	if len(data) == 0 || string(data) == "null" {
		return None{}, nil
	}

	var w recurrenceJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse recurrence: %w", err)
	}

	switch w.Mode {
	case ModeNone:
		return None{}, nil
	case ModeEveryMinutes:
		if w.Minutes == nil {
			return nil, fmt.Errorf("%w: %s rule missing minutes", ErrInvalidRule, w.Mode)
		}
		return NewEveryMinutes(*w.Minutes)
	case ModeEveryHours:
		if w.Hours == nil {
			return nil, fmt.Errorf("%w: %s rule missing hours", ErrInvalidRule, w.Mode)
		}
		return NewEveryHours(*w.Hours)
	case ModeDaily:
		if w.Hour == nil || w.Minute == nil {
			return nil, fmt.Errorf("%w: %s rule missing hour or minute", ErrInvalidRule, w.Mode)
		}
		return NewDaily(*w.Hour, *w.Minute)
	case ModeWeekly:
		if w.Hour == nil || w.Minute == nil {
			return nil, fmt.Errorf("%w: %s rule missing hour or minute", ErrInvalidRule, w.Mode)
		}
		return NewWeekly(w.Days, *w.Hour, *w.Minute)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRule, w.Mode)
	}
}

func (r None) MarshalJSON() ([]byte, error)         { return MarshalRecurrence(r) }
func (r EveryMinutes) MarshalJSON() ([]byte, error) { return MarshalRecurrence(r) }
func (r EveryHours) MarshalJSON() ([]byte, error)   { return MarshalRecurrence(r) }
func (r Daily) MarshalJSON() ([]byte, error)        { return MarshalRecurrence(r) }
func (r Weekly) MarshalJSON() ([]byte, error)       { return MarshalRecurrence(r) }
