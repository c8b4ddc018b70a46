// Package booking is the application layer of the reservation workflow:
// availability/capacity/guide resolvers, the reservation submitter, the
// interactive coordinator and the two lifecycle managers.
package booking

import (
	"context"
	"time"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// Provider is the capability surface of the park backend. parkapi.Client
// implements it; tests substitute fakes.
type Provider interface {
	FetchAvailableWindows(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error)
	FetchRemainingCapacity(ctx context.Context, trailID int64, date time.Time) (int, error)
	FetchEligibleGuides(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error)

	GetTrail(ctx context.Context, trailID int64) (domain.Trail, error)
	GetReservation(ctx context.Context, id int64) (domain.Reservation, error)
	ListReservationsByVisitor(ctx context.Context, visitorID int64) ([]domain.Reservation, error)
	GetAssignment(ctx context.Context, id int64) (*domain.Assignment, error)

	CreateReservation(ctx context.Context, req domain.ReservationRequest) (domain.CreateResult, error)
	TransitionReservation(ctx context.Context, id int64, action domain.TransitionAction, reason string) (domain.Reservation, error)
	StartTour(ctx context.Context, assignmentID int64, observations string) (*domain.Assignment, error)
	FinishTour(ctx context.Context, assignmentID int64, report domain.TourReport) (*domain.Assignment, error)
	RateTour(ctx context.Context, assignmentID int64, rating int, comment string) (*domain.Assignment, error)
}
