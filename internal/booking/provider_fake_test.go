package booking

import (
	"context"
	"time"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// fakeProvider implements Provider with per-call hooks so tests can
// script responses, delays and failures.
type fakeProvider struct {
	fetchWindows  func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error)
	fetchCapacity func(ctx context.Context, trailID int64, date time.Time) (int, error)
	fetchGuides   func(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error)

	getTrail       func(ctx context.Context, trailID int64) (domain.Trail, error)
	getReservation func(ctx context.Context, id int64) (domain.Reservation, error)
	listByVisitor  func(ctx context.Context, visitorID int64) ([]domain.Reservation, error)
	getAssignment  func(ctx context.Context, id int64) (*domain.Assignment, error)

	create     func(ctx context.Context, req domain.ReservationRequest) (domain.CreateResult, error)
	transition func(ctx context.Context, id int64, action domain.TransitionAction, reason string) (domain.Reservation, error)
	startTour  func(ctx context.Context, id int64, obs string) (*domain.Assignment, error)
	finishTour func(ctx context.Context, id int64, report domain.TourReport) (*domain.Assignment, error)
	rateTour   func(ctx context.Context, id int64, rating int, comment string) (*domain.Assignment, error)
}

func (f *fakeProvider) FetchAvailableWindows(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
	if f.fetchWindows == nil {
		return nil, nil
	}
	return f.fetchWindows(ctx, trailID, date)
}

func (f *fakeProvider) FetchRemainingCapacity(ctx context.Context, trailID int64, date time.Time) (int, error) {
	if f.fetchCapacity == nil {
		return 0, nil
	}
	return f.fetchCapacity(ctx, trailID, date)
}

func (f *fakeProvider) FetchEligibleGuides(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
	if f.fetchGuides == nil {
		return nil, nil
	}
	return f.fetchGuides(ctx, trailID, date, w)
}

func (f *fakeProvider) GetTrail(ctx context.Context, trailID int64) (domain.Trail, error) {
	if f.getTrail == nil {
		return domain.Trail{}, nil
	}
	return f.getTrail(ctx, trailID)
}

func (f *fakeProvider) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	if f.getReservation == nil {
		return domain.Reservation{}, nil
	}
	return f.getReservation(ctx, id)
}

func (f *fakeProvider) ListReservationsByVisitor(ctx context.Context, visitorID int64) ([]domain.Reservation, error) {
	if f.listByVisitor == nil {
		return nil, nil
	}
	return f.listByVisitor(ctx, visitorID)
}

func (f *fakeProvider) GetAssignment(ctx context.Context, id int64) (*domain.Assignment, error) {
	if f.getAssignment == nil {
		return &domain.Assignment{ID: id}, nil
	}
	return f.getAssignment(ctx, id)
}

func (f *fakeProvider) CreateReservation(ctx context.Context, req domain.ReservationRequest) (domain.CreateResult, error) {
	if f.create == nil {
		return domain.CreateResult{}, nil
	}
	return f.create(ctx, req)
}

func (f *fakeProvider) TransitionReservation(ctx context.Context, id int64, action domain.TransitionAction, reason string) (domain.Reservation, error) {
	if f.transition == nil {
		return domain.Reservation{}, nil
	}
	return f.transition(ctx, id, action, reason)
}

func (f *fakeProvider) StartTour(ctx context.Context, id int64, obs string) (*domain.Assignment, error) {
	if f.startTour == nil {
		return &domain.Assignment{ID: id}, nil
	}
	return f.startTour(ctx, id, obs)
}

func (f *fakeProvider) FinishTour(ctx context.Context, id int64, report domain.TourReport) (*domain.Assignment, error) {
	if f.finishTour == nil {
		return &domain.Assignment{ID: id}, nil
	}
	return f.finishTour(ctx, id, report)
}

func (f *fakeProvider) RateTour(ctx context.Context, id int64, rating int, comment string) (*domain.Assignment, error) {
	if f.rateTour == nil {
		return &domain.Assignment{ID: id}, nil
	}
	return f.rateTour(ctx, id, rating, comment)
}
