package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the priorities in picker order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority parses a priority name case-insensitively. Empty input means medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "":
		return PriorityMedium, nil
	case string(PriorityLow):
		return PriorityLow, nil
	case string(PriorityMedium):
		return PriorityMedium, nil
	case string(PriorityHigh):
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority %q (must be low, medium, or high)", s)
	}
}

// Payload is a reminder as built from user input, before an id is attached.
type Payload struct {
	Title      string
	Priority   Priority
	Recurrence Recurrence
	// Time is the absolute fire instant; only set for non-repeating reminders.
	Time *time.Time
}

// Reminder is a stored reminder record.
type Reminder struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Priority   Priority   `json:"priority"`
	Recurrence Recurrence `json:"recurrence"`
	Done       bool       `json:"done"`
	Time       *time.Time `json:"time,omitempty"` // RFC3339, one-shot reminders only
}

// NewReminder attaches an id to a payload. New reminders are always active.
func NewReminder(id string, p Payload) Reminder {
	r := Reminder{
		ID:         id,
		Title:      p.Title,
		Priority:   p.Priority,
		Recurrence: CloneRecurrence(p.Recurrence),
	}
	if r.Recurrence == nil {
		r.Recurrence = None{}
	}
	if p.Time != nil {
		t := *p.Time
		r.Time = &t
	}
	return r
}

// NewID returns a fresh reminder id. Ids are ULIDs so the creation time is embedded.
func NewID() string {
	return ulid.Make().String()
}

// CreatedAt recovers the creation time from the id. Ids written by older versions are
// millisecond timestamps and are also understood.
func (r Reminder) CreatedAt() (time.Time, bool) {
	if id, err := ulid.ParseStrict(r.ID); err == nil {
		return ulid.Time(id.Time()), true
	}
	if ms, err := strconv.ParseInt(r.ID, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// Clone returns a deep copy of the reminder.
func (r Reminder) Clone() Reminder {
	c := r
	c.Recurrence = CloneRecurrence(r.Recurrence)
	if r.Time != nil {
		t := *r.Time
		c.Time = &t
	}
	return c
}

func (r *Reminder) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Priority   Priority        `json:"priority"`
		Recurrence json.RawMessage `json:"recurrence"`
		Done       bool            `json:"done"`
		Time       json.RawMessage `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rec, err := UnmarshalRecurrence(raw.Recurrence)
	if err != nil {
		return fmt.Errorf("reminder %s: %w", raw.ID, err)
	}

	*r = Reminder{
		ID:         raw.ID,
		Title:      raw.Title,
		Priority:   raw.Priority,
		Recurrence: rec,
		Done:       raw.Done,
	}

	// Older records carry time as an {hour, minute} object for display only; the
	// wall-clock part already lives in the rule, so only instants are kept.
	if trimmed := bytes.TrimSpace(raw.Time); len(trimmed) > 0 && trimmed[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return fmt.Errorf("reminder %s: invalid time: %w", raw.ID, err)
		}
		r.Time = &t
	}

	return nil
}
