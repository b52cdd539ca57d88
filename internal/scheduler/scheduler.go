package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per poll cycle.
type TickFunc func(ctx context.Context, now time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
	// ErrorCooldown is the extra wait after a failed cycle before the normal
	// cadence resumes.
	ErrorCooldown time.Duration
}

// Scheduler drives sequential execution of poll cycles. A cycle fully
// completes, including the inter-cycle delay, before the next one starts; no
// two cycles are ever in flight at once.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the tick function each interval until ctx is cancelled.
// A tick error is logged and followed by the error cooldown; it never stops
// the loop.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := s.wait(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	next := s.nextTick(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextTick(time.Now().UTC())
			delay = time.Until(next)
		}

		s.logger.Debug().Time("next_cycle", next).Msg("waiting for next cycle")
		if err := s.wait(ctx, delay); err != nil {
			return err
		}

		started := time.Now().UTC()
		s.logger.Info().Time("cycle", started).Msg("executing poll cycle")

		if err := tick(ctx, started); err != nil {
			s.logger.Error().Err(err).Time("cycle", started).Msg("cycle failed")
			if s.opts.ErrorCooldown > 0 {
				if werr := s.wait(ctx, s.opts.ErrorCooldown); werr != nil {
					return werr
				}
			}
		}

		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now
	}
	aligned := now.Truncate(s.opts.Interval)
	if !aligned.After(now) {
		aligned = aligned.Add(s.opts.Interval)
	}
	return aligned
}
