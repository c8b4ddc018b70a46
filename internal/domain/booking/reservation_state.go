package booking

type ReservationState string

const (
	StatePending   ReservationState = "PENDING"
	StateConfirmed ReservationState = "CONFIRMED"
	StateCompleted ReservationState = "COMPLETED"
	StateCancelled ReservationState = "CANCELLED"
	StateNoShow    ReservationState = "NO_SHOW"
)

func (s ReservationState) Valid() bool {
	switch s {
	case StatePending, StateConfirmed, StateCompleted, StateCancelled, StateNoShow:
		return true
	}
	return false
}

// Terminal states admit no further transitions.
func (s ReservationState) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateNoShow:
		return true
	}
	return false
}

type Actor string

const (
	ActorVisitor Actor = "visitor"
	ActorStaff   Actor = "staff"
)

// TransitionAction is the mutating call requested against the backend.
type TransitionAction string

const (
	ActionConfirm  TransitionAction = "CONFIRM"
	ActionCancel   TransitionAction = "CANCEL"
	ActionComplete TransitionAction = "COMPLETE"
	ActionNoShow   TransitionAction = "NO_SHOW"
)

func (a TransitionAction) Target() ReservationState {
	switch a {
	case ActionConfirm:
		return StateConfirmed
	case ActionCancel:
		return StateCancelled
	case ActionComplete:
		return StateCompleted
	case ActionNoShow:
		return StateNoShow
	}
	return ""
}

// TransitionFacts are the contextual facts guards need. They are derived
// from the reservation itself plus the clock, never fetched separately.
type TransitionFacts struct {
	GuideRequirementMet bool // trail needs no guide, or an assignment exists
	TourStarted         bool
	TourFinished        bool
	VisitDatePassed     bool
}

type reservationTransition struct {
	From   ReservationState
	To     ReservationState
	Actors []Actor
	Guard  func(TransitionFacts) error
}

var reservationTransitions = []reservationTransition{
	{
		From: StatePending, To: StateConfirmed,
		Actors: []Actor{ActorStaff},
		Guard: func(f TransitionFacts) error {
			if !f.GuideRequirementMet {
				return NewValidationError("assignment", "trail requires a guide before confirmation")
			}
			return nil
		},
	},
	{
		From: StatePending, To: StateCancelled,
		Actors: []Actor{ActorVisitor, ActorStaff},
	},
	{
		From: StateConfirmed, To: StateCancelled,
		Actors: []Actor{ActorVisitor, ActorStaff},
		Guard: func(f TransitionFacts) error {
			if f.TourStarted {
				return NewValidationError("tour", "tour already started")
			}
			return nil
		},
	},
	{
		From: StateConfirmed, To: StateCompleted,
		Actors: []Actor{ActorStaff},
		Guard: func(f TransitionFacts) error {
			if !f.TourFinished {
				return NewValidationError("tour", "linked tour has not finished")
			}
			return nil
		},
	},
	{
		From: StateConfirmed, To: StateNoShow,
		Actors: []Actor{ActorStaff},
		Guard: func(f TransitionFacts) error {
			if f.TourStarted {
				return NewValidationError("tour", "tour already started")
			}
			if !f.VisitDatePassed {
				return NewValidationError("visitDate", "visit date has not passed")
			}
			return nil
		},
	},
}

// CheckTransition validates a reservation transition against the table
// before the mutating call is ever issued. An absent edge yields
// InvalidTransitionError; an unmet guard yields a ValidationError.
func CheckTransition(from, to ReservationState, actor Actor, facts TransitionFacts) error {
	for _, tr := range reservationTransitions {
		if tr.From != from || tr.To != to {
			continue
		}
		if !actorAllowed(tr.Actors, actor) {
			continue
		}
		if tr.Guard != nil {
			return tr.Guard(facts)
		}
		return nil
	}
	return &InvalidTransitionError{From: string(from), To: string(to)}
}

// AvailableActions lists the actions an actor could take from the
// current state, guards included. UI surfaces disable everything else.
func AvailableActions(from ReservationState, actor Actor, facts TransitionFacts) []TransitionAction {
	var out []TransitionAction
	for _, a := range []TransitionAction{ActionConfirm, ActionCancel, ActionComplete, ActionNoShow} {
		if CheckTransition(from, a.Target(), actor, facts) == nil {
			out = append(out, a)
		}
	}
	return out
}

func actorAllowed(allowed []Actor, actor Actor) bool {
	for _, a := range allowed {
		if a == actor {
			return true
		}
	}
	return false
}
