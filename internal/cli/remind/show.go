package remind

import (
	"fmt"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/reminders"
)

type ShowCmd struct {
	ID string `arg:"" help:"Reminder ID or unique prefix."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	r, err := cli.ResolveID(ctx.Reminders.List(reminders.FilterAll), c.ID)
	if err != nil {
		return err
	}

	status := "active"
	if r.Done {
		status = "done"
	}

	fmt.Fprintln(ctx.Out, headerStyle.Render(r.Title))
	fmt.Fprintf(ctx.Out, "  ID:       %s\n", r.ID)
	fmt.Fprintf(ctx.Out, "  Priority: %s\n", priorityBadge(r.Priority))
	fmt.Fprintf(ctx.Out, "  Repeat:   %s\n", recurrence.Describe(r))
	fmt.Fprintf(ctx.Out, "  Status:   %s\n", status)
	if r.Time != nil {
		fmt.Fprintf(ctx.Out, "  When:     %s\n", r.Time.Local().Format(constants.DateTimeFormat))
	}
	if created, ok := r.CreatedAt(); ok {
		fmt.Fprintf(ctx.Out, "  Created:  %s\n", created.Local().Format(constants.DateTimeFormat))
	}
	if !r.Done {
		if next, ok := recurrence.NextOccurrence(r, ctx.Now()); ok {
			fmt.Fprintf(ctx.Out, "  Next:     %s\n", next.Local().Format(constants.DateTimeFormat))
		}
	}
	return nil
}
