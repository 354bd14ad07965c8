package application

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// LoopConfig bounds the pause between cycles. The delay is uniform random in
// [MinDelay, MaxDelay] so the agent does not poll on a fixed beat.
type LoopConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

type Loop struct {
	cycles *CycleService
	cfg    LoopConfig

	// delay is swapped out in tests to avoid real sleeps.
	delay func() time.Duration
}

func NewLoop(cycles *CycleService, cfg LoopConfig) *Loop {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}

	loop := &Loop{cycles: cycles, cfg: cfg}
	loop.delay = loop.randomDelay
	return loop
}

// Run cycles until the context is canceled or a cycle aborts. Non-fatal
// cycle errors are logged by the service and the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	for {
		report, err := l.cycles.RunCycle(ctx)
		switch {
		case errors.Is(err, ErrAborted):
			return err
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			l.cycles.logger.Warn("cycle failed, will retry after delay", "error", err.Error())
		default:
			l.cycles.logger.Info("cycle complete",
				"evaluated", report.Evaluated(),
				"posted", report.Posted,
				"dry_runs", report.DryRuns,
				"budget_skipped", report.SkippedBudget,
			)
		}

		wait := l.delay()
		l.cycles.logger.Debug("sleeping before next cycle", "delay", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (l *Loop) randomDelay() time.Duration {
	span := l.cfg.MaxDelay - l.cfg.MinDelay
	if span <= 0 {
		return l.cfg.MinDelay
	}
	return l.cfg.MinDelay + rand.N(span+1)
}
