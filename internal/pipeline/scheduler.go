package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// PassRunner is the single operation the scheduler drives.
type PassRunner interface {
	RunOnePass(ctx context.Context)
}

// Scheduler triggers one pass immediately and then on every interval tick.
// The loop body runs in this goroutine, so passes are serialized by
// construction; a tick that fires during a slow pass coalesces instead of
// overlapping it.
type Scheduler struct {
	runner   PassRunner
	interval time.Duration
}

func NewScheduler(runner PassRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
	}
}

// Run blocks until ctx is canceled and returns ctx.Err(). An in-flight
// pass observes the same context and winds down on its own; whole-record
// writes mean abandonment cannot leave a half-written history.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "phase", "pass", "interval", s.interval)

	s.runner.RunOnePass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "phase", "pass")
			return ctx.Err()
		case <-ticker.C:
			s.runner.RunOnePass(ctx)
		}
	}
}
