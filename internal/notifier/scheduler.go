package notifier

import (
	"context"

	"github.com/julianstephens/remindr/internal/models"
)

// Prober reports whether a delivery channel can currently show notifications.
type Prober interface {
	Available() error
}

// Scheduler schedules reminder instructions into the queue. Permission is granted when
// notifications are enabled and the delivery channel is reachable.
type Scheduler struct {
	queue   *Queue
	channel Prober
	enabled bool
}

func NewScheduler(queue *Queue, channel Prober, enabled bool) *Scheduler {
	return &Scheduler{
		queue:   queue,
		channel: channel,
		enabled: enabled,
	}
}

// RequestPermission returns false with a nil error when notifications are switched off,
// and false with the reason when the channel is unreachable.
func (s *Scheduler) RequestPermission(ctx context.Context) (bool, error) {
	if !s.enabled {
		return false, nil
	}
	if err := s.channel.Available(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scheduler) Schedule(ctx context.Context, in models.Instruction) error {
	return s.queue.Schedule(ctx, in)
}
