package booking

import (
	"context"
	"time"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// LifecycleManager drives reservation state transitions. Every
// transition is checked against the local table before the mutating call
// goes out; the backend's error text is never the first line of defense.
type LifecycleManager struct {
	Provider Provider
	Now      func() time.Time
}

func NewLifecycleManager(p Provider) *LifecycleManager {
	return &LifecycleManager{Provider: p, Now: time.Now}
}

// Facts derives the guard context from the reservation itself.
func (m *LifecycleManager) Facts(r domain.Reservation) domain.TransitionFacts {
	f := domain.TransitionFacts{
		GuideRequirementMet: !r.Trail.RequiresGuide || r.Assignment != nil,
		VisitDatePassed:     !r.VisitDate.IsZero() && r.VisitDate.Before(m.Now().Truncate(24*time.Hour)),
	}
	if r.Assignment != nil {
		f.TourStarted = r.Assignment.StartedAt != nil
		f.TourFinished = r.Assignment.FinishedAt != nil
	}
	return f
}

// Transition applies an action to a reservation. Never auto-retried:
// the call mutates backend state.
func (m *LifecycleManager) Transition(ctx context.Context, r domain.Reservation, action domain.TransitionAction, actor domain.Actor, reason string) (domain.Reservation, error) {
	to := action.Target()
	if to == "" {
		return domain.Reservation{}, domain.NewValidationError("action", "unknown transition action")
	}
	if err := domain.CheckTransition(r.State, to, actor, m.Facts(r)); err != nil {
		return domain.Reservation{}, err
	}
	return m.Provider.TransitionReservation(ctx, r.ID, action, reason)
}

// TransitionByID fetches the reservation first, so guards run against
// current backend state rather than a caller-supplied copy.
func (m *LifecycleManager) TransitionByID(ctx context.Context, id int64, action domain.TransitionAction, actor domain.Actor, reason string) (domain.Reservation, error) {
	r, err := m.Provider.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return m.Transition(ctx, r, action, actor, reason)
}

// Actions reports which transitions the actor could take right now; UI
// surfaces disable the rest preemptively.
func (m *LifecycleManager) Actions(r domain.Reservation, actor domain.Actor) []domain.TransitionAction {
	return domain.AvailableActions(r.State, actor, m.Facts(r))
}
