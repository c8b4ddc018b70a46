// Package jobs stores scheduled reservation submissions: a validated
// booking request saved with an attempt window, submitted by the
// scheduler once the window opens (typically when the booking horizon
// for a popular trail date opens up).
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/trailbook/internal/db"
	domain "github.com/example/trailbook/internal/domain/booking"
)

const (
	StatusActive  = "active"
	StatusBooked  = "booked"
	StatusFailed  = "failed"
	StatusExpired = "expired"
)

type Job struct {
	ID   int64
	Name string

	Visitor      domain.Visitor
	TrailID      int64
	VisitDate    time.Time
	Window       domain.TimeWindow
	People       int
	Observations string
	Mode         domain.GuideMode
	GuideID      int64

	// ClientRef is fixed at creation so repeated attempts of the same
	// job dedupe server-side.
	ClientRef string

	WindowStartAt time.Time
	WindowEndAt   time.Time
	IntervalSec   int

	Status           string
	LastAttemptAt    *time.Time
	BookedAt         *time.Time
	ReservationID    *int64
	ConfirmationCode *string
	LastError        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Request assembles the reservation request this job submits.
func (j Job) Request() domain.ReservationRequest {
	return domain.ReservationRequest{
		Visitor:      j.Visitor,
		TrailID:      j.TrailID,
		VisitDate:    j.VisitDate,
		Window:       j.Window,
		People:       j.People,
		Observations: j.Observations,
		Mode:         j.Mode,
		GuideID:      j.GuideID,
		ClientRef:    j.ClientRef,
	}
}

func (j Job) NextAttemptAt() time.Time {
	if j.LastAttemptAt == nil {
		return j.WindowStartAt
	}
	return j.LastAttemptAt.Add(time.Duration(j.IntervalSec) * time.Second)
}

func (j Job) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("name required")
	}
	if j.Visitor.NationalID == "" {
		return fmt.Errorf("visitor national id required")
	}
	if j.TrailID == 0 {
		return fmt.Errorf("trail_id required")
	}
	if j.VisitDate.IsZero() {
		return fmt.Errorf("visit_date required")
	}
	if err := j.Window.Validate(); err != nil {
		return err
	}
	if j.People < 1 {
		return fmt.Errorf("people must be >= 1")
	}
	if !j.Mode.Valid() {
		return fmt.Errorf("unknown guide mode %q", j.Mode)
	}
	if j.Mode == domain.GuideModeManual && j.GuideID == 0 {
		return fmt.Errorf("guide_id required for manual mode")
	}
	if !j.WindowEndAt.After(j.WindowStartAt) {
		return fmt.Errorf("window_end_at must be after window_start_at")
	}
	if j.IntervalSec < 1 {
		return fmt.Errorf("interval_seconds must be >= 1")
	}
	return nil
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, j Job) (int64, error) {
	if err := j.Validate(); err != nil {
		return 0, err
	}
	if j.ClientRef == "" {
		j.ClientRef = uuid.NewString()
	}
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO submission_jobs
  (name, visitor_national_id, visitor_first_name, visitor_last_name, visitor_email, visitor_phone,
   trail_id, visit_date, window_start, window_end, people, observations, guide_mode, guide_id, client_ref,
   window_start_at, window_end_at, interval_seconds, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,'active')
RETURNING id`,
		j.Name, j.Visitor.NationalID, j.Visitor.FirstName, j.Visitor.LastName, j.Visitor.Email, j.Visitor.Phone,
		j.TrailID, j.VisitDate, j.Window.Start, j.Window.End, j.People, j.Observations, string(j.Mode), j.GuideID, j.ClientRef,
		j.WindowStartAt, j.WindowEndAt, j.IntervalSec,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	return id, nil
}

const jobColumns = `
id, name, visitor_national_id, visitor_first_name, visitor_last_name, visitor_email, visitor_phone,
trail_id, visit_date, window_start, window_end, people, observations, guide_mode, guide_id, client_ref,
window_start_at, window_end_at, interval_seconds,
status, last_attempt_at, booked_at, reservation_id, confirmation_code, last_error, created_at, updated_at`

func (r *Repo) Get(ctx context.Context, id int64) (Job, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM submission_jobs WHERE id=$1`, id)
	j, err := scanJob(row)
	if err != nil {
		return Job{}, db.WrapNotFound(err)
	}
	return j, nil
}

func (r *Repo) List(ctx context.Context) ([]Job, error) {
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM submission_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// DueJobs returns active jobs whose attempt window is open right now.
func (r *Repo) DueJobs(ctx context.Context, limit int) ([]Job, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+jobColumns+`
FROM submission_jobs
WHERE status='active'
  AND now() >= window_start_at
  AND now() <= window_end_at
ORDER BY window_start_at ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// MarkBooked records a successful submission and retires the job.
func (r *Repo) MarkBooked(ctx context.Context, id, reservationID int64, confirmationCode string) error {
	return r.db.Exec(ctx, `
UPDATE submission_jobs
SET status='booked', booked_at=now(), last_attempt_at=now(),
    reservation_id=$2, confirmation_code=$3, last_error=NULL, updated_at=now()
WHERE id=$1`, id, reservationID, confirmationCode)
}

// MarkAttempt records a failed attempt without retiring the job.
func (r *Repo) MarkAttempt(ctx context.Context, id int64, attemptErr string) error {
	return r.db.Exec(ctx, `
UPDATE submission_jobs
SET last_attempt_at=now(), last_error=$2, updated_at=now()
WHERE id=$1`, id, attemptErr)
}

func (r *Repo) SetStatus(ctx context.Context, id int64, status string, reason *string) error {
	return r.db.Exec(ctx, `
UPDATE submission_jobs
SET status=$2, last_error=COALESCE($3, last_error), updated_at=now()
WHERE id=$1`, id, status, reason)
}

// ExpireOverdue retires active jobs whose attempt window has closed.
func (r *Repo) ExpireOverdue(ctx context.Context) error {
	return r.db.Exec(ctx, `
UPDATE submission_jobs
SET status='expired', last_error='attempt window ended without success', updated_at=now()
WHERE status='active' AND now() > window_end_at`)
}

func scanJob(row db.Row) (Job, error) {
	var j Job
	var mode string
	var winStart, winEnd string
	if err := row.Scan(
		&j.ID, &j.Name, &j.Visitor.NationalID, &j.Visitor.FirstName, &j.Visitor.LastName, &j.Visitor.Email, &j.Visitor.Phone,
		&j.TrailID, &j.VisitDate, &winStart, &winEnd, &j.People, &j.Observations, &mode, &j.GuideID, &j.ClientRef,
		&j.WindowStartAt, &j.WindowEndAt, &j.IntervalSec,
		&j.Status, &j.LastAttemptAt, &j.BookedAt, &j.ReservationID, &j.ConfirmationCode, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	j.Mode = domain.GuideMode(mode)
	j.Window = domain.TimeWindow{Start: winStart, End: winEnd}
	return j, nil
}

func collectJobs(rows db.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
