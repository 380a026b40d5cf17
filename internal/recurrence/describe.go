package recurrence

import (
	"fmt"
	"strings"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/models"
)

// Describe returns the human-readable repeat policy of a reminder.
func Describe(r models.Reminder) string {
	return DescribeRule(r.Recurrence)
}

// DescribeRule is total: an unrecognised rule yields a fixed fallback label.
func DescribeRule(rule models.Recurrence) string {
	switch v := rule.(type) {
	case models.None:
		return "Does not repeat"
	case models.EveryMinutes:
		return fmt.Sprintf("Every %d min", v.Minutes)
	case models.EveryHours:
		return fmt.Sprintf("Every %d hr", v.Hours)
	case models.Daily:
		return "Daily at " + FormatClock(v.Hour, v.Minute)
	case models.Weekly:
		return fmt.Sprintf("Weekly (%s) at %s", dayLabels(v.Days), FormatClock(v.Hour, v.Minute))
	default:
		return constants.CustomRepeatLabel
	}
}

// FormatClock renders a wall-clock time on a 12-hour clock, e.g. "09:05 PM".
func FormatClock(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", (hour+11)%12+1, minute, suffix)
}

// dayLabels joins the labels of days in stored order, skipping unknown days.
func dayLabels(days []models.Weekday) string {
	labels := make([]string, 0, len(days))
	for _, d := range days {
		if l := d.Short(); l != "" {
			labels = append(labels, l)
		}
	}
	return strings.Join(labels, ", ")
}
