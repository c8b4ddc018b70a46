package booking

import (
	"strings"
	"time"
)

// DateFormat is the wire format for visit dates.
const DateFormat = "2006-01-02"

type Difficulty string

const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyModerate Difficulty = "MODERATE"
	DifficultyHard     Difficulty = "HARD"
	DifficultyExtreme  Difficulty = "EXTREME"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyModerate, DifficultyHard, DifficultyExtreme:
		return true
	}
	return false
}

type TrailStatus string

const (
	TrailActive      TrailStatus = "ACTIVE"
	TrailInactive    TrailStatus = "INACTIVE"
	TrailMaintenance TrailStatus = "MAINTENANCE"
)

// Trail is a bookable route in the park catalog. Immutable for the
// duration of a booking session; the backend owns the catalog.
type Trail struct {
	ID            int64
	Name          string
	Difficulty    Difficulty
	DistanceKm    float64
	DurationHours float64
	DailyCapacity int
	RequiresGuide bool
	Status        TrailStatus
}

type GuideStatus string

const (
	GuideActive   GuideStatus = "ACTIVE"
	GuideInactive GuideStatus = "INACTIVE"
)

type Guide struct {
	ID           int64
	Name         string
	Specialties  []string
	MaxGroupSize int
	Status       GuideStatus
}

// Visitor carries the raw identity fields sent with a reservation.
// The backend upserts by national ID; the client never decides whether
// the visitor already exists.
type Visitor struct {
	NationalID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
}

type GuideMode string

const (
	GuideModeNone   GuideMode = "NONE"
	GuideModeAuto   GuideMode = "AUTO"
	GuideModeManual GuideMode = "MANUAL"
)

func (m GuideMode) Valid() bool {
	switch m {
	case GuideModeNone, GuideModeAuto, GuideModeManual:
		return true
	}
	return false
}

type Reservation struct {
	ID               int64
	ConfirmationCode string
	Visitor          Visitor
	Trail            Trail
	VisitDate        time.Time
	Window           TimeWindow
	People           int
	State            ReservationState
	Observations     string
	Assignment       *Assignment
	CreatedAt        time.Time
}

// ReservationRequest is the assembled create payload. Mode selects the
// backend create path; all three paths share this one shape.
type ReservationRequest struct {
	Visitor      Visitor
	TrailID      int64
	VisitDate    time.Time
	Window       TimeWindow
	People       int
	Observations string
	Mode         GuideMode
	GuideID      int64 // MANUAL only

	// ClientRef deduplicates a resubmitted create on the backend.
	ClientRef string
}

// CreateResult is what a successful create returns: enough to bootstrap
// the reservation lifecycle.
type CreateResult struct {
	ReservationID    int64
	ConfirmationCode string
	State            ReservationState
	Assignment       *Assignment
}

// TourReport is the guide's closing report for a tour.
type TourReport struct {
	Observations        string
	HadIncident         bool
	IncidentDescription string
}

// SplitSpecialties parses the backend's comma-separated specialty field.
func SplitSpecialties(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
