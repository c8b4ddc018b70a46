package booking

import "time"

type AssignmentState string

const (
	TourNotStarted AssignmentState = "NOT_STARTED"
	TourInProgress AssignmentState = "IN_PROGRESS"
	TourFinished   AssignmentState = "FINISHED"
)

// Assignment binds a guide to a reservation and records the guided
// tour's execution. Real timestamps are set by the backend at start and
// finish; once FinishedAt is set both become immutable.
type Assignment struct {
	ID            int64
	ReservationID int64
	Guide         Guide
	AssignedAt    time.Time

	StartedAt  *time.Time
	FinishedAt *time.Time

	GuideObservations   string
	HadIncident         bool
	IncidentDescription string

	Rating        *int
	RatingComment string
}

// State is derived from the real timestamps, mirroring how the tour
// actions decide which buttons are live.
func (a *Assignment) State() AssignmentState {
	switch {
	case a.FinishedAt != nil:
		return TourFinished
	case a.StartedAt != nil:
		return TourInProgress
	default:
		return TourNotStarted
	}
}

// CanStart guards NOT_STARTED -> IN_PROGRESS. A set start time means a
// double start; a set end time means the tour is already closed.
func (a *Assignment) CanStart() error {
	if a.StartedAt != nil || a.FinishedAt != nil {
		return &InvalidTransitionError{From: string(a.State()), To: string(TourInProgress)}
	}
	return nil
}

// CanFinish guards IN_PROGRESS -> FINISHED and enforces the closing
// report invariants: observations required, incident description
// required whenever an incident is flagged.
func (a *Assignment) CanFinish(report TourReport) error {
	if a.StartedAt == nil || a.FinishedAt != nil {
		return &InvalidTransitionError{From: string(a.State()), To: string(TourFinished)}
	}
	if report.Observations == "" {
		return NewValidationError("observations", "guide observations are required to finish")
	}
	if report.HadIncident && report.IncidentDescription == "" {
		return NewValidationError("incidentDescription", "required when an incident is reported")
	}
	return nil
}

// CanRate allows the visitor rating only once the tour has finished.
func (a *Assignment) CanRate(rating int) error {
	if a.State() != TourFinished {
		return ErrNotYetCompleted
	}
	if rating < 1 || rating > 5 {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}
