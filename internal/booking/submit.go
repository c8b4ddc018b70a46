package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// Park business rules, mirrored client-side so the form can fail fast.
// The backend re-checks all of them authoritatively.
const (
	MinLeadTime = 24 * time.Hour
	MinPeople   = 1
	MaxPeople   = 20
)

// Constraints is the submitter's snapshot of the last resolved facts for
// the request's (trail, date) tuple. A nil Capacity means "unknown",
// which blocks submission.
type Constraints struct {
	Trail    domain.Trail
	Windows  []domain.TimeWindow
	Capacity *int

	// EligibleGuides is the last guide set fetched for the selected
	// window; consulted only in MANUAL mode.
	EligibleGuides []domain.Guide
}

// Submitter validates an assembled request against the constraints and
// performs the create call. One capability, three backend paths keyed by
// mode; validation never diverges between them.
type Submitter struct {
	Provider Provider
	Now      func() time.Time
}

func NewSubmitter(p Provider) *Submitter {
	return &Submitter{Provider: p, Now: time.Now}
}

// Submit runs every client-side precondition before touching the
// network. A violation returns a ValidationError and makes no call.
func (s *Submitter) Submit(ctx context.Context, req domain.ReservationRequest, cons Constraints) (domain.CreateResult, error) {
	if err := s.Validate(req, cons); err != nil {
		return domain.CreateResult{}, err
	}
	if req.ClientRef == "" {
		req.ClientRef = uuid.NewString()
	}
	return s.Provider.CreateReservation(ctx, req)
}

// Validate enforces the submission preconditions in order, returning the
// first violation.
func (s *Submitter) Validate(req domain.ReservationRequest, cons Constraints) error {
	if err := validateVisitor(req.Visitor); err != nil {
		return err
	}

	if req.TrailID == 0 {
		return domain.NewValidationError("trailId", "no trail selected")
	}

	now := s.Now()
	if req.VisitDate.IsZero() {
		return domain.NewValidationError("visitDate", "required")
	}
	if req.VisitDate.Before(now.Add(MinLeadTime)) {
		return domain.NewValidationError("visitDate", "lead time: reservations require 24h notice")
	}

	if len(cons.Windows) == 0 {
		return domain.NewValidationError("timeWindow", "no available windows for the selected date")
	}
	if req.Window.IsZero() {
		return domain.NewValidationError("timeWindow", "no time window selected")
	}
	if !domain.ContainsWindow(cons.Windows, req.Window) {
		return domain.NewValidationError("timeWindow", "selected window is no longer available")
	}

	if err := validatePeople(req, cons); err != nil {
		return err
	}

	if !req.Mode.Valid() {
		return domain.NewValidationError("guideMode", "unknown mode")
	}
	if req.Mode == domain.GuideModeManual {
		if req.GuideID == 0 {
			return domain.NewValidationError("guideId", "no guide selected")
		}
		if !guideInSet(cons.EligibleGuides, req.GuideID) {
			return domain.NewValidationError("guideId", "guide is not eligible for the selected window")
		}
	}
	return nil
}

func validateVisitor(v domain.Visitor) error {
	id := v.NationalID
	if id == "" {
		return domain.NewValidationError("nationalId", "required")
	}
	if len(id) < 5 || len(id) > 20 {
		return domain.NewValidationError("nationalId", "must be 5-20 characters")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return domain.NewValidationError("nationalId", "must be numeric")
		}
	}
	return nil
}

func validatePeople(req domain.ReservationRequest, cons Constraints) error {
	if req.People < MinPeople {
		return domain.NewValidationError("numberOfPeople", "at least 1 person")
	}
	if req.People > MaxPeople {
		return domain.NewValidationError("numberOfPeople", "at most 20 people")
	}
	if cons.Capacity == nil {
		return domain.NewValidationError("numberOfPeople", "remaining capacity unknown")
	}
	if req.People > *cons.Capacity {
		return domain.NewValidationError("numberOfPeople", "exceeds remaining capacity for the date")
	}
	// Guided groups are additionally capped by the guide's group size.
	if req.Mode == domain.GuideModeManual {
		if g, ok := findGuide(cons.EligibleGuides, req.GuideID); ok && g.MaxGroupSize > 0 && req.People > g.MaxGroupSize {
			return domain.NewValidationError("numberOfPeople", "exceeds the guide's maximum group size")
		}
	}
	return nil
}

func guideInSet(guides []domain.Guide, id int64) bool {
	_, ok := findGuide(guides, id)
	return ok
}

func findGuide(guides []domain.Guide, id int64) (domain.Guide, bool) {
	for _, g := range guides {
		if g.ID == id {
			return g, true
		}
	}
	return domain.Guide{}, false
}
