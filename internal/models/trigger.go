package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type TriggerKind string

const (
	TriggerOneShot  TriggerKind = "one_shot"
	TriggerInterval TriggerKind = "interval"
	TriggerDaily    TriggerKind = "daily"
	TriggerWeekly   TriggerKind = "weekly"
)

// Trigger is a concrete firing schedule handed to the notification scheduler.
type Trigger interface {
	Kind() TriggerKind
	String() string
}

// OneShotAt fires once at an instant.
type OneShotAt struct {
	At time.Time `json:"at"`
}

// Interval fires Seconds after scheduling, and every Seconds after that when Repeats.
type Interval struct {
	Seconds int  `json:"seconds"`
	Repeats bool `json:"repeats"`
}

// DailyAt fires every day at a wall-clock time.
type DailyAt struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// WeeklyAt fires every week on one weekday at a wall-clock time.
type WeeklyAt struct {
	Weekday Weekday `json:"weekday"`
	Hour    int     `json:"hour"`
	Minute  int     `json:"minute"`
}

func (OneShotAt) Kind() TriggerKind { return TriggerOneShot }
func (Interval) Kind() TriggerKind  { return TriggerInterval }
func (DailyAt) Kind() TriggerKind   { return TriggerDaily }
func (WeeklyAt) Kind() TriggerKind  { return TriggerWeekly }

func (t OneShotAt) String() string {
	return "once at " + t.At.Format(time.RFC3339)
}

func (t Interval) String() string {
	if t.Repeats {
		return fmt.Sprintf("every %ds", t.Seconds)
	}
	return fmt.Sprintf("once in %ds", t.Seconds)
}

func (t DailyAt) String() string {
	return fmt.Sprintf("daily at %02d:%02d", t.Hour, t.Minute)
}

func (t WeeklyAt) String() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d", t.Weekday.Short(), t.Hour, t.Minute)
}

// Content is what a fired notification shows.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound bool   `json:"sound"`
}

// Instruction is one scheduling request for the notification scheduler.
type Instruction struct {
	ReminderID string
	Content    Content
	Trigger    Trigger
}

// DecodeTrigger rebuilds a trigger from its kind and JSON-encoded fields.
func DecodeTrigger(kind TriggerKind, data []byte) (Trigger, error) {
	var (
		t   Trigger
		err error
	)
	switch kind {
	case TriggerOneShot:
		var v OneShotAt
		err = json.Unmarshal(data, &v)
		t = v
	case TriggerInterval:
		var v Interval
		err = json.Unmarshal(data, &v)
		t = v
	case TriggerDaily:
		var v DailyAt
		err = json.Unmarshal(data, &v)
		t = v
	case TriggerWeekly:
		var v WeeklyAt
		err = json.Unmarshal(data, &v)
		t = v
	default:
		return nil, fmt.Errorf("unknown trigger kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s trigger: %w", kind, err)
	}
	return t, nil
}
