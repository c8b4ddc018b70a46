package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition_AllowedEdges(t *testing.T) {
	okFacts := TransitionFacts{
		GuideRequirementMet: true,
		TourFinished:        true,
		VisitDatePassed:     true,
	}
	noShowFacts := TransitionFacts{
		GuideRequirementMet: true,
		VisitDatePassed:     true,
	}

	cases := []struct {
		name  string
		from  ReservationState
		to    ReservationState
		actor Actor
		facts TransitionFacts
	}{
		{"staff confirms pending", StatePending, StateConfirmed, ActorStaff, okFacts},
		{"visitor cancels pending", StatePending, StateCancelled, ActorVisitor, TransitionFacts{}},
		{"staff cancels pending", StatePending, StateCancelled, ActorStaff, TransitionFacts{}},
		{"visitor cancels confirmed before tour", StateConfirmed, StateCancelled, ActorVisitor, TransitionFacts{}},
		{"staff completes after tour finished", StateConfirmed, StateCompleted, ActorStaff, okFacts},
		{"staff marks no-show after date", StateConfirmed, StateNoShow, ActorStaff, noShowFacts},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, CheckTransition(tc.from, tc.to, tc.actor, tc.facts))
		})
	}
}

func TestCheckTransition_TerminalStatesAreClosed(t *testing.T) {
	facts := TransitionFacts{
		GuideRequirementMet: true,
		TourFinished:        true,
		VisitDatePassed:     true,
	}
	terminals := []ReservationState{StateCompleted, StateCancelled, StateNoShow}
	targets := []ReservationState{StatePending, StateConfirmed, StateCompleted, StateCancelled, StateNoShow}

	for _, from := range terminals {
		require.True(t, from.Terminal())
		for _, to := range targets {
			for _, actor := range []Actor{ActorVisitor, ActorStaff} {
				err := CheckTransition(from, to, actor, facts)
				var te *InvalidTransitionError
				require.ErrorAs(t, err, &te, "%s -> %s by %s must be invalid", from, to, actor)
			}
		}
	}
}

func TestCheckTransition_Guards(t *testing.T) {
	t.Run("confirm blocked when guide required and unassigned", func(t *testing.T) {
		err := CheckTransition(StatePending, StateConfirmed, ActorStaff, TransitionFacts{GuideRequirementMet: false})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "assignment", ve.Field)
	})

	t.Run("cancel blocked once tour started", func(t *testing.T) {
		err := CheckTransition(StateConfirmed, StateCancelled, ActorVisitor, TransitionFacts{TourStarted: true})
		assert.True(t, IsValidation(err))
	})

	t.Run("complete blocked until tour finished", func(t *testing.T) {
		err := CheckTransition(StateConfirmed, StateCompleted, ActorStaff, TransitionFacts{TourStarted: true})
		assert.True(t, IsValidation(err))
	})

	t.Run("no-show blocked before visit date", func(t *testing.T) {
		err := CheckTransition(StateConfirmed, StateNoShow, ActorStaff, TransitionFacts{VisitDatePassed: false})
		assert.True(t, IsValidation(err))
	})

	t.Run("no-show blocked once tour started", func(t *testing.T) {
		err := CheckTransition(StateConfirmed, StateNoShow, ActorStaff, TransitionFacts{TourStarted: true, VisitDatePassed: true})
		assert.True(t, IsValidation(err))
	})
}

func TestCheckTransition_ActorMatters(t *testing.T) {
	// Only staff confirm, complete and mark no-shows.
	facts := TransitionFacts{GuideRequirementMet: true, TourFinished: true, VisitDatePassed: true}
	for _, to := range []ReservationState{StateConfirmed} {
		err := CheckTransition(StatePending, to, ActorVisitor, facts)
		assert.True(t, IsInvalidTransition(err))
	}
	assert.True(t, IsInvalidTransition(CheckTransition(StateConfirmed, StateCompleted, ActorVisitor, facts)))
	assert.True(t, IsInvalidTransition(CheckTransition(StateConfirmed, StateNoShow, ActorVisitor, facts)))
}

func TestAvailableActions(t *testing.T) {
	t.Run("pending, visitor", func(t *testing.T) {
		got := AvailableActions(StatePending, ActorVisitor, TransitionFacts{})
		assert.Equal(t, []TransitionAction{ActionCancel}, got)
	})

	t.Run("pending, staff, guide satisfied", func(t *testing.T) {
		got := AvailableActions(StatePending, ActorStaff, TransitionFacts{GuideRequirementMet: true})
		assert.ElementsMatch(t, []TransitionAction{ActionConfirm, ActionCancel}, got)
	})

	t.Run("confirmed, staff, tour finished", func(t *testing.T) {
		got := AvailableActions(StateConfirmed, ActorStaff, TransitionFacts{GuideRequirementMet: true, TourStarted: true, TourFinished: true})
		assert.Equal(t, []TransitionAction{ActionComplete}, got)
	})

	t.Run("terminal state has none", func(t *testing.T) {
		assert.Empty(t, AvailableActions(StateCancelled, ActorStaff, TransitionFacts{}))
	})
}
