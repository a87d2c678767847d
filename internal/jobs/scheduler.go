// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"time"

	xglog "epgshift/internal/log"
)

// Scheduler triggers one processing run per day at a configured wall-clock
// time. Runs execute sequentially on the scheduler goroutine, so two runs
// can never overlap.
type Scheduler struct {
	RunTime  string // HH:MM
	Location *time.Location
	Trigger  func(context.Context) error
}

// Run blocks until ctx is cancelled, firing Trigger at each scheduled time.
// A failed run is logged and the next one is scheduled as usual.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := xglog.WithComponentFromContext(ctx, "scheduler")

	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	for {
		next := NextRun(time.Now().In(loc), s.RunTime)
		logger.Info().Time("next_run", next).Msg("scheduled next run")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.Trigger(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled run failed")
		}
	}
}

// NextRun returns the next occurrence of the HH:MM wall time strictly after
// now. An unparsable runTime falls back to 06:00.
func NextRun(now time.Time, runTime string) time.Time {
	t, err := time.Parse("15:04", runTime)
	if err != nil {
		t, _ = time.Parse("15:04", "06:00")
	}
	next := time.Date(now.Year(), now.Month(), now.Day(),
		t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
