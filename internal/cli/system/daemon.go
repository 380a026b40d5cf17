package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/remindr/internal/cli"
	apperrors "github.com/julianstephens/remindr/internal/errors"
	"github.com/julianstephens/remindr/internal/logger"
	"github.com/julianstephens/remindr/internal/notifier"
)

// DaemonCmd delivers queued notifications as they fall due.
type DaemonCmd struct {
	Interval time.Duration `help:"Poll interval (defaults to notifications.poll_interval)."`
	Once     bool          `help:"Deliver what is due now and exit."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	if !ctx.Config.Notifications.Enabled {
		return apperrors.WithHint(errors.New("notifications are disabled"),
			"set notifications.enabled: true and start the tray app, then check with 'remindr notify-test --now'")
	}

	d := notifier.NewDispatcher(ctx.Queue, ctx.Channel)

	if c.Once {
		n, err := d.Tick(context.Background())
		fmt.Fprintf(ctx.Out, "Delivered %d notification(s)\n", n)
		return err
	}

	interval := c.Interval
	if interval <= 0 {
		interval = ctx.Config.Notifications.PollInterval
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Notification daemon started", "interval", interval)
	fmt.Fprintf(ctx.Out, "Delivering notifications every %s (Ctrl+C to stop)\n", interval)
	if err := d.Run(sigCtx, interval); err != nil {
		return err
	}
	logger.Info("Notification daemon stopped")
	return nil
}
