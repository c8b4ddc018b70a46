// Package scheduler submits due reservation jobs through the regular
// Submitter path, so scheduled submissions obey the same preconditions
// as interactive ones.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/trailbook/internal/booking"
	domain "github.com/example/trailbook/internal/domain/booking"
	"github.com/example/trailbook/internal/jobs"
)

type Scheduler struct {
	Repo      *jobs.Repo
	Resolvers *booking.Resolvers
	Submitter *booking.Submitter
	Interval  time.Duration
	Log       zerolog.Logger

	wg sync.WaitGroup
}

func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.Repo.ExpireOverdue(ctx); err != nil {
		s.Log.Error().Err(err).Msg("expire overdue jobs")
	}

	js, err := s.Repo.DueJobs(ctx, 25)
	if err != nil {
		s.Log.Error().Err(err).Msg("due jobs query failed")
		return
	}

	now := time.Now()
	for _, j := range js {
		if j.NextAttemptAt().After(now) {
			continue
		}

		j := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJobAttempt(ctx, j)
		}()
	}
}

func (s *Scheduler) runJobAttempt(ctx context.Context, j jobs.Job) {
	log := s.Log.With().Int64("job", j.ID).Logger()

	// Resolve current constraints for the job's tuple; the submitter
	// needs them for the same checks an interactive booking gets.
	cons, err := s.resolveConstraints(ctx, j)
	if err != nil {
		log.Warn().Err(err).Msg("constraint resolution failed")
		_ = s.Repo.MarkAttempt(ctx, j.ID, err.Error())
		return
	}

	res, err := s.Submitter.Submit(ctx, j.Request(), cons)
	switch {
	case err == nil:
		log.Info().Int64("reservation", res.ReservationID).Str("code", res.ConfirmationCode).Msg("booked")
		_ = s.Repo.MarkBooked(ctx, j.ID, res.ReservationID, res.ConfirmationCode)
	case domain.IsUpstreamUnavailable(err), domain.IsCapacityExceeded(err):
		// Transient or contested: try again next tick while the
		// window is open.
		log.Warn().Err(err).Msg("attempt failed")
		_ = s.Repo.MarkAttempt(ctx, j.ID, err.Error())
	default:
		// Validation and transition errors will not fix themselves.
		log.Error().Err(err).Msg("job rejected")
		msg := err.Error()
		_ = s.Repo.MarkAttempt(ctx, j.ID, msg)
		_ = s.Repo.SetStatus(ctx, j.ID, jobs.StatusFailed, &msg)
	}
}

func (s *Scheduler) resolveConstraints(ctx context.Context, j jobs.Job) (booking.Constraints, error) {
	trail, err := s.Resolvers.Trail(ctx, j.TrailID)
	if err != nil {
		return booking.Constraints{}, err
	}
	windows, err := s.Resolvers.TimeWindows(ctx, j.TrailID, j.VisitDate)
	if err != nil {
		return booking.Constraints{}, err
	}
	capacity, err := s.Resolvers.RemainingCapacity(ctx, j.TrailID, j.VisitDate)
	if err != nil {
		return booking.Constraints{}, err
	}
	cons := booking.Constraints{Trail: trail, Windows: windows, Capacity: &capacity}
	if j.Mode == domain.GuideModeManual {
		guides, err := s.Resolvers.EligibleGuides(ctx, j.TrailID, j.VisitDate, j.Window)
		if err != nil {
			return booking.Constraints{}, err
		}
		cons.EligibleGuides = guides
	}
	return cons, nil
}
