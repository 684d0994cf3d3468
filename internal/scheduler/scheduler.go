package scheduler

import (
	"context"
	"time"

	"auction-engine/utils"
)

// Sweeper is the pair of idempotent batch operations the timer drives.
type Sweeper interface {
	ActivateScheduled() (int, error)
	CloseExpired() (int, error)
}

// Scheduler invokes the lifecycle sweeps on a fixed cadence. It keeps no
// state of its own between ticks; the sweeps are safe to re-run and safe
// to overlap with another scheduler instance.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
}

// New creates a Scheduler driving the given sweeper.
func New(sweeper Sweeper, interval time.Duration) *Scheduler {
	return &Scheduler{sweeper: sweeper, interval: interval}
}

// Run blocks, sweeping once per interval until ctx is cancelled. Sweep
// errors are logged and the loop keeps going.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Info("sweep scheduler stopped", nil)
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Scheduler) sweepOnce() {
	activated, err := s.sweeper.ActivateScheduled()
	if err != nil {
		utils.Error("activation sweep failed", map[string]any{"error": err.Error()})
	}

	closed, err := s.sweeper.CloseExpired()
	if err != nil {
		utils.Error("closing sweep failed", map[string]any{"error": err.Error()})
	}

	if activated > 0 || closed > 0 {
		utils.Info("sweep completed", map[string]any{
			"activated": activated,
			"closed":    closed,
		})
	}
}
