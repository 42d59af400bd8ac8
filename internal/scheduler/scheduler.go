// Package scheduler runs engine entry points on a fixed interval. A
// failing cycle is logged and the loop continues on the next tick with a
// longer interval until a cycle succeeds again; the loop never terminates
// on task failure.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Task is one supervised unit of periodic work.
type Task interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler drives a Task on a fixed interval with backoff-on-error as a
// policy parameter rather than hardcoded control flow.
type Scheduler struct {
	task         Task
	interval     time.Duration
	errorBackoff time.Duration
	logger       zerolog.Logger
}

// New creates a scheduler. A zero errorBackoff disables backoff and keeps
// the normal interval after failures.
func New(task Task, interval, errorBackoff time.Duration, logger zerolog.Logger) *Scheduler {
	if errorBackoff <= 0 {
		errorBackoff = interval
	}
	return &Scheduler{
		task:         task,
		interval:     interval,
		errorBackoff: errorBackoff,
		logger:       logger.With().Str("component", "scheduler").Str("task", task.Name()).Logger(),
	}
}

// Run blocks until ctx is cancelled, invoking the task once per interval.
// A cycle in progress is handed the same ctx, so cancellation aborts it
// before its persist step rather than corrupting persisted state.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-timer.C:
		}

		next := s.interval
		if err := s.task.Run(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info().Msg("scheduler stopped")
				return
			}
			s.logger.Error().Err(err).Dur("backoff", s.errorBackoff).Msg("cycle failed, backing off")
			next = s.errorBackoff
		}
		timer.Reset(next)
	}
}
