package remind

import (
	"context"
	"fmt"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/reminders"
)

// DoneCmd toggles completion, so running it twice reactivates the reminder.
type DoneCmd struct {
	ID string `arg:"" help:"Reminder ID or unique prefix."`
}

func (c *DoneCmd) Run(ctx *cli.Context) error {
	r, err := cli.ResolveID(ctx.Reminders.List(reminders.FilterAll), c.ID)
	if err != nil {
		return err
	}

	updated, ok := ctx.Reminders.ToggleDone(context.Background(), r.ID)
	if !ok {
		return fmt.Errorf("reminder not found: %s", r.ID)
	}

	if updated.Done {
		fmt.Fprintf(ctx.Out, "✓ Marked done: %s\n", updated.Title)
	} else {
		fmt.Fprintf(ctx.Out, "↺ Marked active: %s\n", updated.Title)
	}
	return nil
}
