package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/remindr/internal/models"
)

var rruleWeekdays = [...]rrule.Weekday{
	models.Monday:    rrule.MO,
	models.Tuesday:   rrule.TU,
	models.Wednesday: rrule.WE,
	models.Thursday:  rrule.TH,
	models.Friday:    rrule.FR,
	models.Saturday:  rrule.SA,
	models.Sunday:    rrule.SU,
}

// intervalOption expresses a period in the coarsest unit that divides it.
func intervalOption(seconds int) rrule.ROption {
	switch {
	case seconds%3600 == 0:
		return rrule.ROption{Freq: rrule.HOURLY, Interval: seconds / 3600}
	case seconds%60 == 0:
		return rrule.ROption{Freq: rrule.MINUTELY, Interval: seconds / 60}
	default:
		return rrule.ROption{Freq: rrule.SECONDLY, Interval: seconds}
	}
}

// TriggerRule expresses a repeating trigger as an RRULE starting at anchor. It returns nil
// for triggers that fire only once.
func TriggerRule(t models.Trigger, anchor time.Time) (*rrule.RRule, error) {
	var opt rrule.ROption

	switch v := t.(type) {
	case models.Interval:
		if !v.Repeats {
			return nil, nil
		}
		if v.Seconds < 1 {
			return nil, fmt.Errorf("interval must be positive, got %ds", v.Seconds)
		}
		opt = intervalOption(v.Seconds)
		opt.Dtstart = anchor
	case models.DailyAt:
		opt = rrule.ROption{Freq: rrule.DAILY}
		setClock(&opt, anchor, v.Hour, v.Minute)
	case models.WeeklyAt:
		if !v.Weekday.Valid() {
			return nil, fmt.Errorf("invalid weekday %d", v.Weekday)
		}
		opt = rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{rruleWeekdays[v.Weekday]}}
		setClock(&opt, anchor, v.Hour, v.Minute)
	case models.OneShotAt:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported trigger %T", t)
	}

	return rrule.NewRRule(opt)
}

// NextFire returns the first time t fires strictly after `after`. anchor is the instant
// the trigger was scheduled: interval triggers first fire one period after it.
func NextFire(t models.Trigger, anchor, after time.Time) (time.Time, bool) {
	if v, ok := t.(models.OneShotAt); ok {
		return v.At, v.At.After(after)
	}
	// The anchor itself is the scheduling instant, never a fire
	if after.Before(anchor) {
		after = anchor
	}

	var hour, minute int
	switch v := t.(type) {
	case models.Interval:
		return nextInterval(v, anchor, after)
	case models.DailyAt:
		hour, minute = v.Hour, v.Minute
	case models.WeeklyAt:
		hour, minute = v.Hour, v.Minute
	}

	// Times shifted out of a daylight-saving gap land after the rule's own occurrence,
	// so the search starts early enough to see them.
	start := after.Add(-maxGap)
	if start.Before(anchor) {
		start = anchor
	}
	rule, err := TriggerRule(t, start)
	if err != nil || rule == nil {
		return time.Time{}, false
	}
	from, inc := start, true
	for {
		next := rule.After(from, inc)
		if next.IsZero() {
			return time.Time{}, false
		}
		if fixed := onClock(next, hour, minute); fixed.After(after) {
			return fixed, true
		}
		from, inc = next, false
	}
}

// maxGap bounds how far a daylight-saving transition moves the clock.
const maxGap = 3 * time.Hour

func nextInterval(v models.Interval, anchor, after time.Time) (time.Time, bool) {
	period := time.Duration(v.Seconds) * time.Second
	if !v.Repeats {
		at := anchor.Add(period)
		return at, at.After(after)
	}
	if period <= 0 {
		return time.Time{}, false
	}
	n := after.Sub(anchor)/period + 1
	return anchor.Add(n * period), true
}

// NextOccurrence returns when a reminder fires next, counting repeating intervals from
// its creation time. Done reminders still report their schedule.
func NextOccurrence(r models.Reminder, now time.Time) (time.Time, bool) {
	instructions, err := Plan(r, now)
	if err != nil {
		return time.Time{}, false
	}

	anchor, ok := r.CreatedAt()
	if !ok || anchor.After(now) {
		anchor = now
	}

	return earliest(instructions, anchor, now)
}

// firstFire returns the first time r fires after it was created.
func firstFire(r models.Reminder, created time.Time) (time.Time, bool) {
	instructions, err := Plan(r, created)
	if err != nil {
		return time.Time{}, false
	}
	return earliest(instructions, created, created)
}

func earliest(instructions []models.Instruction, anchor, after time.Time) (time.Time, bool) {
	var best time.Time
	for _, in := range instructions {
		if next, ok := NextFire(in.Trigger, anchor, after); ok && (best.IsZero() || next.Before(best)) {
			best = next
		}
	}
	return best, !best.IsZero()
}

func setClock(opt *rrule.ROption, start time.Time, hour, minute int) {
	opt.Dtstart = start
	opt.Byhour = []int{hour}
	opt.Byminute = []int{minute}
	opt.Bysecond = []int{0}
}

// onClock corrects t, built for hour:minute on its day, when that wall-clock time does not
// exist. A time inside a spring-forward gap is read with the offset in force before the
// gap, so 02:30 becomes 03:30 when clocks jump from 02:00 to 03:00.
func onClock(t time.Time, hour, minute int) time.Time {
	if t.Hour() == hour && t.Minute() == minute {
		return t
	}
	wall := time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, time.UTC)
	got := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	// Normalisation may have crossed midnight
	if d := wall.Sub(got); d > 12*time.Hour {
		wall = wall.AddDate(0, 0, -1)
	} else if d < -12*time.Hour {
		wall = wall.AddDate(0, 0, 1)
	}
	_, offset := t.Add(-24 * time.Hour).Zone()
	return wall.Add(-time.Duration(offset) * time.Second).In(t.Location())
}
