package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/models"
)

var testContent = models.Content{
	Title: "🔔 Test Reminder",
	Body:  "This is a test notification!",
	Sound: true,
}

// NotifyTestCmd queues a one-shot notification a few seconds out, or shows one right away.
type NotifyTestCmd struct {
	Now bool `help:"Deliver immediately instead of queueing for the daemon."`
}

func (c *NotifyTestCmd) Run(ctx *cli.Context) error {
	if c.Now {
		if err := ctx.Channel.Deliver(context.Background(), testContent); err != nil {
			return fmt.Errorf("failed to deliver test notification: %w", err)
		}
		fmt.Fprintln(ctx.Out, "✓ Test notification sent")
		return nil
	}

	at := ctx.Now().Add(constants.TestNotificationDelay)
	in := models.Instruction{
		ReminderID: "test",
		Content:    testContent,
		Trigger:    models.OneShotAt{At: at},
	}
	if err := ctx.Queue.Schedule(context.Background(), in); err != nil {
		return fmt.Errorf("failed to queue test notification: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Test notification queued for %s\n", at.Format(constants.TimeFormat+":05"))
	fmt.Fprintf(ctx.Out, "  It is delivered by '%s daemon'.\n", constants.AppName)
	return nil
}
