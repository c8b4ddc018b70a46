package booking

import (
	"context"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// TourManager drives the guide-side execution of an assignment:
// NOT_STARTED -> IN_PROGRESS -> FINISHED, linear, no skipping. Guards
// run locally before each mutating call; none of the calls auto-retry.
type TourManager struct {
	Provider Provider
}

func NewTourManager(p Provider) *TourManager {
	return &TourManager{Provider: p}
}

// Start begins the tour, recording the real start time server-side.
func (m *TourManager) Start(ctx context.Context, assignmentID int64, observations string) (*domain.Assignment, error) {
	a, err := m.Provider.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := a.CanStart(); err != nil {
		return nil, err
	}
	return m.Provider.StartTour(ctx, assignmentID, observations)
}

// Finish closes the tour with the guide's report. Observations are
// mandatory, and an incident flag requires a description.
func (m *TourManager) Finish(ctx context.Context, assignmentID int64, report domain.TourReport) (*domain.Assignment, error) {
	a, err := m.Provider.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := a.CanFinish(report); err != nil {
		return nil, err
	}
	return m.Provider.FinishTour(ctx, assignmentID, report)
}

// Rate records the visitor's rating, accepted only once the tour has
// finished.
func (m *TourManager) Rate(ctx context.Context, assignmentID int64, rating int, comment string) (*domain.Assignment, error) {
	a, err := m.Provider.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := a.CanRate(rating); err != nil {
		return nil, err
	}
	return m.Provider.RateTour(ctx, assignmentID, rating, comment)
}
