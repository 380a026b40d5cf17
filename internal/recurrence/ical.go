package recurrence

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/models"
)

// ErrNothingToExport is returned when exporting an empty reminder list.
var ErrNothingToExport = errors.New("no reminders to export")

const floatingLayout = "20060102T150405"

// icalPriority maps priorities onto the RFC 5545 1 (highest) to 9 (lowest) scale.
var icalPriority = map[models.Priority]string{
	models.PriorityHigh:   "1",
	models.PriorityMedium: "5",
	models.PriorityLow:    "9",
}

// RuleOption expresses a recurrence as RRULE options without a start. It returns nil for
// rules that do not repeat.
func RuleOption(rule models.Recurrence) *rrule.ROption {
	switch v := rule.(type) {
	case models.EveryMinutes:
		opt := intervalOption(v.Minutes * 60)
		return &opt
	case models.EveryHours:
		opt := intervalOption(v.Hours * 3600)
		return &opt
	case models.Daily:
		return &rrule.ROption{Freq: rrule.DAILY}
	case models.Weekly:
		days := make([]rrule.Weekday, 0, len(v.Days))
		for _, d := range v.Days {
			if d.Valid() {
				days = append(days, rruleWeekdays[d])
			}
		}
		return &rrule.ROption{Freq: rrule.WEEKLY, Byweekday: days}
	default:
		return nil
	}
}

// ExportICal writes the reminders as an iCalendar stream of VTODOs, each with a display
// alarm at its start.
func ExportICal(w io.Writer, reminders []models.Reminder, now time.Time) error {
	if len(reminders) == 0 {
		return ErrNothingToExport
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, "-//"+constants.AppName+"//Reminders//EN")
	cal.Props.SetText(ical.PropVersion, "2.0")

	for _, r := range reminders {
		cal.Children = append(cal.Children, todoComponent(r, now))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func todoComponent(r models.Reminder, now time.Time) *ical.Component {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, r.ID)
	todo.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	todo.Props.SetText(ical.PropSummary, r.Title)
	todo.Props.SetText(ical.PropDescription, Describe(r))

	if p, ok := icalPriority[r.Priority]; ok {
		prop := ical.NewProp(ical.PropPriority)
		prop.Value = p
		todo.Props.Set(prop)
	}

	status := "NEEDS-ACTION"
	if r.Done {
		status = "COMPLETED"
	}
	todo.Props.SetText(ical.PropStatus, status)

	created, ok := r.CreatedAt()
	if !ok {
		created = now
	}
	todo.Props.SetDateTime(ical.PropCreated, created.UTC())

	// DTSTART must be the first occurrence
	switch r.Recurrence.(type) {
	case models.None:
		if r.Time != nil {
			todo.Props.SetDateTime(ical.PropDateTimeStart, r.Time.UTC())
		}
	case models.EveryMinutes, models.EveryHours:
		if first, ok := firstFire(r, created); ok {
			todo.Props.SetDateTime(ical.PropDateTimeStart, first.UTC())
		}
	case models.Daily, models.Weekly:
		if first, ok := firstFire(r, created); ok {
			setFloating(todo, first.In(created.Location()))
		}
	}
	todo.Props.SetRecurrenceRule(RuleOption(r.Recurrence))

	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, NotificationTitle(r.Priority))
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "PT0S"
	alarm.Props.Set(trigger)
	todo.Children = append(todo.Children, alarm)

	return todo
}

// setFloating writes DTSTART as local wall-clock time so daily and weekly reminders keep
// their hour across DST changes.
func setFloating(c *ical.Component, t time.Time) {
	prop := ical.NewProp(ical.PropDateTimeStart)
	prop.Value = t.Format(floatingLayout)
	c.Props.Set(prop)
}
