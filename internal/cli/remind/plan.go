package remind

import (
	"errors"
	"fmt"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/reminders"
)

// PlanCmd prints the notifications a reminder would schedule, without scheduling them.
type PlanCmd struct {
	ID string `arg:"" help:"Reminder ID or unique prefix."`
}

func (c *PlanCmd) Run(ctx *cli.Context) error {
	r, err := cli.ResolveID(ctx.Reminders.List(reminders.FilterAll), c.ID)
	if err != nil {
		return err
	}

	plan, err := recurrence.Plan(r, ctx.Now())
	if errors.Is(err, recurrence.ErrFireTimeInPast) {
		fmt.Fprintf(ctx.Out, "%s has already passed, nothing would be scheduled.\n", r.Title)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, headerStyle.Render(fmt.Sprintf("%s: %d notification(s)", r.Title, len(plan))))
	for i, in := range plan {
		fmt.Fprintf(ctx.Out, "  %d. %s  %q / %q\n", i+1, in.Trigger, in.Content.Title, in.Content.Body)
	}
	return nil
}
