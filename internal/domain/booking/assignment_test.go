package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssignmentState(t *testing.T) {
	start := time.Date(2026, 9, 12, 8, 5, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	assert.Equal(t, TourNotStarted, (&Assignment{}).State())
	assert.Equal(t, TourInProgress, (&Assignment{StartedAt: &start}).State())
	assert.Equal(t, TourFinished, (&Assignment{StartedAt: &start, FinishedAt: &end}).State())
}

func TestAssignmentCanStart(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Hour)

	assert.NoError(t, (&Assignment{}).CanStart())

	err := (&Assignment{StartedAt: &start}).CanStart()
	assert.True(t, IsInvalidTransition(err), "double start must be rejected")

	err = (&Assignment{StartedAt: &start, FinishedAt: &end}).CanStart()
	assert.True(t, IsInvalidTransition(err), "finished tour cannot restart")
}

func TestAssignmentCanFinish(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Hour)
	report := TourReport{Observations: "uneventful ascent, full group returned"}

	t.Run("happy path", func(t *testing.T) {
		a := &Assignment{StartedAt: &start}
		assert.NoError(t, a.CanFinish(report))
	})

	t.Run("finish before start", func(t *testing.T) {
		err := (&Assignment{}).CanFinish(report)
		assert.True(t, IsInvalidTransition(err))
	})

	t.Run("double finish", func(t *testing.T) {
		err := (&Assignment{StartedAt: &start, FinishedAt: &end}).CanFinish(report)
		assert.True(t, IsInvalidTransition(err))
	})

	t.Run("observations required", func(t *testing.T) {
		err := (&Assignment{StartedAt: &start}).CanFinish(TourReport{})
		assert.True(t, IsValidation(err))
	})

	t.Run("incident needs description", func(t *testing.T) {
		r := report
		r.HadIncident = true
		err := (&Assignment{StartedAt: &start}).CanFinish(r)
		assert.True(t, IsValidation(err))

		r.IncidentDescription = "sprained ankle at the river crossing"
		assert.NoError(t, (&Assignment{StartedAt: &start}).CanFinish(r))
	})
}

func TestAssignmentCanRate(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Hour)

	t.Run("before finish", func(t *testing.T) {
		err := (&Assignment{StartedAt: &start}).CanRate(5)
		assert.ErrorIs(t, err, ErrNotYetCompleted)
	})

	t.Run("out of range", func(t *testing.T) {
		a := &Assignment{StartedAt: &start, FinishedAt: &end}
		assert.True(t, IsValidation(a.CanRate(0)))
		assert.True(t, IsValidation(a.CanRate(6)))
	})

	t.Run("valid", func(t *testing.T) {
		a := &Assignment{StartedAt: &start, FinishedAt: &end}
		assert.NoError(t, a.CanRate(4))
	})
}
