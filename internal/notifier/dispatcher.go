package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/remindr/internal/logger"
	"github.com/julianstephens/remindr/internal/models"
)

// Deliverer shows a notification.
type Deliverer interface {
	Deliver(ctx context.Context, c models.Content) error
}

// Dispatcher fires due queue entries through a delivery channel.
type Dispatcher struct {
	queue *Queue
	out   Deliverer
	now   func() time.Time
}

func NewDispatcher(queue *Queue, out Deliverer) *Dispatcher {
	return &Dispatcher{queue: queue, out: out, now: time.Now}
}

// Tick delivers every due entry once and returns how many were delivered. An entry whose
// delivery fails stays due and is retried on the next tick.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.queue.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	l := logger.For("dispatcher")
	delivered := 0
	for _, e := range due {
		if err := d.out.Deliver(ctx, e.Content); err != nil {
			l.Error("Failed to deliver notification", "reminder", e.ReminderID, "trigger", e.Trigger.String(), "error", err)
			continue
		}
		delivered++
		l.Info("Delivered notification", "reminder", e.ReminderID, "trigger", e.Trigger.String())

		if err := d.queue.Advance(ctx, e, now); err != nil {
			return delivered, fmt.Errorf("failed to advance queue: %w", err)
		}
	}
	return delivered, nil
}

// Run ticks every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := d.Tick(ctx); err != nil {
			logger.For("dispatcher").Error("Tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
