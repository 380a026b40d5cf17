package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/constants"
)

// QueueCmd lists notifications waiting to be delivered.
type QueueCmd struct{}

func (c *QueueCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Queue.Pending(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read notification queue: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(ctx.Out, "No notifications queued.")
		return nil
	}

	fmt.Fprintf(ctx.Out, "%d notification(s) queued:\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(ctx.Out, "  %s  %-28s %s\n",
			e.NextFire.Local().Format(constants.DateTimeFormat), e.Trigger, e.Content.Body)
	}
	return nil
}
