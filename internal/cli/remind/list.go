package remind

import (
	"fmt"
	"time"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/reminders"
)

type ListCmd struct {
	Filter string `help:"Which reminders to show (all, active, done)." default:"all" enum:"all,active,done"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	f, err := reminders.ParseFilter(c.Filter)
	if err != nil {
		return err
	}

	list := ctx.Reminders.List(f)
	if len(list) == 0 {
		fmt.Fprintln(ctx.Out, "No reminders found.")
		return nil
	}

	fmt.Fprintln(ctx.Out, headerStyle.Render(fmt.Sprintf("Reminders (%s, %d)", f, len(list))))
	now := ctx.Now()
	for _, r := range list {
		fmt.Fprintln(ctx.Out, formatLine(r, now))
	}
	return nil
}

func formatLine(r models.Reminder, now time.Time) string {
	check, title := "[ ]", r.Title
	if r.Done {
		check, title = "[x]", doneStyle.Render(r.Title)
	}

	line := fmt.Sprintf("%s %s  %s  %s  %s", check, idStyle.Render(r.ID), title,
		priorityBadge(r.Priority), repeatStyle.Render(recurrence.Describe(r)))
	if r.Time != nil {
		line += "  " + r.Time.Local().Format(constants.DateTimeFormat)
	}
	if !r.Done {
		if next, ok := recurrence.NextOccurrence(r, now); ok {
			line += "  next " + next.Local().Format(constants.DateTimeFormat)
		}
	}
	return line
}
