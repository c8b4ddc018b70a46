// Package web is a thin JSON console over the booking workflow. It
// renders nothing; presentation belongs to the separate frontend.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/trailbook/internal/booking"
	domain "github.com/example/trailbook/internal/domain/booking"
	"github.com/example/trailbook/internal/jobs"
)

type Server struct {
	Resolvers *booking.Resolvers
	Submitter *booking.Submitter
	Lifecycle *booking.LifecycleManager
	Tours     *booking.TourManager
	Jobs      *jobs.Repo
	Log       zerolog.Logger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /api/availability", s.handleAvailability)
	mux.HandleFunc("GET /api/guides", s.handleGuides)
	mux.HandleFunc("POST /api/reservations", s.handleCreateReservation)
	mux.HandleFunc("GET /api/reservations", s.handleListReservations)
	mux.HandleFunc("GET /api/reservations/{id}", s.handleGetReservation)
	mux.HandleFunc("POST /api/reservations/{id}/transition", s.handleTransition)
	mux.HandleFunc("POST /api/tours/{id}/start", s.handleTourStart)
	mux.HandleFunc("POST /api/tours/{id}/finish", s.handleTourFinish)
	mux.HandleFunc("POST /api/tours/{id}/rate", s.handleTourRate)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)

	return s.logRequests(mux)
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// availabilityReport is the combined capacity + windows answer for one
// (trail, date) tuple.
type availabilityReport struct {
	TrailID   int64               `json:"trailId"`
	VisitDate string              `json:"visitDate"`
	Capacity  int                 `json:"remainingCapacity"`
	Windows   []domain.TimeWindow `json:"windows"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	trailID, date, err := tupleParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	capacity, err := s.Resolvers.RemainingCapacity(r.Context(), trailID, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	windows, err := s.Resolvers.TimeWindows(r.Context(), trailID, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, availabilityReport{
		TrailID:   trailID,
		VisitDate: date.Format(domain.DateFormat),
		Capacity:  capacity,
		Windows:   windows,
	})
}

func (s *Server) handleGuides(w http.ResponseWriter, r *http.Request) {
	trailID, date, err := tupleParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	window, err := domain.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		s.writeError(w, domain.NewValidationError("window", err.Error()))
		return
	}
	guides, err := s.Resolvers.EligibleGuides(r.Context(), trailID, date, window)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, guides)
}

type createReservationBody struct {
	NationalID   string `json:"nationalId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	TrailID      int64  `json:"trailId"`
	VisitDate    string `json:"visitDate"`
	Window       string `json:"window"`
	People       int    `json:"numberOfPeople"`
	Observations string `json:"observations"`
	Mode         string `json:"guideMode"`
	GuideID      int64  `json:"guideId"`
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.NewValidationError("request", "malformed JSON"))
		return
	}
	date, err := time.Parse(domain.DateFormat, body.VisitDate)
	if err != nil {
		s.writeError(w, domain.NewValidationError("visitDate", "want YYYY-MM-DD"))
		return
	}
	window, err := domain.ParseWindow(body.Window)
	if err != nil {
		s.writeError(w, domain.NewValidationError("window", err.Error()))
		return
	}
	mode := domain.GuideMode(body.Mode)
	if body.Mode == "" {
		mode = domain.GuideModeNone
	}

	req := domain.ReservationRequest{
		Visitor: domain.Visitor{
			NationalID: body.NationalID,
			FirstName:  body.FirstName,
			LastName:   body.LastName,
			Email:      body.Email,
			Phone:      body.Phone,
		},
		TrailID:      body.TrailID,
		VisitDate:    date,
		Window:       window,
		People:       body.People,
		Observations: body.Observations,
		Mode:         mode,
		GuideID:      body.GuideID,
	}

	cons, err := s.resolveConstraints(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.Submitter.Submit(r.Context(), req, cons)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) resolveConstraints(ctx context.Context, req domain.ReservationRequest) (booking.Constraints, error) {
	trail, err := s.Resolvers.Trail(ctx, req.TrailID)
	if err != nil {
		return booking.Constraints{}, err
	}
	windows, err := s.Resolvers.TimeWindows(ctx, req.TrailID, req.VisitDate)
	if err != nil {
		return booking.Constraints{}, err
	}
	capacity, err := s.Resolvers.RemainingCapacity(ctx, req.TrailID, req.VisitDate)
	if err != nil {
		return booking.Constraints{}, err
	}
	cons := booking.Constraints{Trail: trail, Windows: windows, Capacity: &capacity}
	if req.Mode == domain.GuideModeManual {
		guides, err := s.Resolvers.EligibleGuides(ctx, req.TrailID, req.VisitDate, req.Window)
		if err != nil {
			return booking.Constraints{}, err
		}
		cons.EligibleGuides = guides
	}
	return cons, nil
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	visitorID, err := strconv.ParseInt(r.URL.Query().Get("visitor_id"), 10, 64)
	if err != nil || visitorID <= 0 {
		s.writeError(w, domain.NewValidationError("visitor_id", "required"))
		return
	}
	res, err := s.Lifecycle.Provider.ListReservationsByVisitor(r.Context(), visitorID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.Lifecycle.Provider.GetReservation(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type transitionBody struct {
	Action string `json:"action"`
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body transitionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.NewValidationError("request", "malformed JSON"))
		return
	}
	actor := domain.Actor(body.Actor)
	if actor == "" {
		actor = domain.ActorStaff
	}
	res, err := s.Lifecycle.TransitionByID(r.Context(), id, domain.TransitionAction(body.Action), actor, body.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTourStart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Observations string `json:"observations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.NewValidationError("request", "malformed JSON"))
		return
	}
	a, err := s.Tours.Start(r.Context(), id, body.Observations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleTourFinish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Observations        string `json:"observations"`
		HadIncident         bool   `json:"hadIncident"`
		IncidentDescription string `json:"incidentDescription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.NewValidationError("request", "malformed JSON"))
		return
	}
	a, err := s.Tours.Finish(r.Context(), id, domain.TourReport{
		Observations:        body.Observations,
		HadIncident:         body.HadIncident,
		IncidentDescription: body.IncidentDescription,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleTourRate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.NewValidationError("request", "malformed JSON"))
		return
	}
	a, err := s.Tours.Rate(r.Context(), id, body.Rating, body.Comment)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	js, err := s.Jobs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, js)
}

type createJobBody struct {
	Name          string    `json:"name"`
	NationalID    string    `json:"nationalId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	TrailID       int64     `json:"trailId"`
	VisitDate     string    `json:"visitDate"`
	Window        string    `json:"window"`
	People        int       `json:"numberOfPeople"`
	Observations  string    `json:"observations"`
	Mode          string    `json:"guideMode"`
	GuideID       int64     `json:"guideId"`
	WindowStartAt time.Time `json:"windowStartAt"`
	WindowEndAt   time.Time `json:"windowEndAt"`
	IntervalSec   int       `json:"intervalSeconds"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body createJobBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.NewValidationError("request", "malformed JSON"))
		return
	}
	date, err := time.Parse(domain.DateFormat, body.VisitDate)
	if err != nil {
		s.writeError(w, domain.NewValidationError("visitDate", "want YYYY-MM-DD"))
		return
	}
	window, err := domain.ParseWindow(body.Window)
	if err != nil {
		s.writeError(w, domain.NewValidationError("window", err.Error()))
		return
	}
	mode := domain.GuideMode(body.Mode)
	if body.Mode == "" {
		mode = domain.GuideModeNone
	}
	if body.IntervalSec == 0 {
		body.IntervalSec = 30
	}

	j := jobs.Job{
		Name: body.Name,
		Visitor: domain.Visitor{
			NationalID: body.NationalID,
			FirstName:  body.FirstName,
			LastName:   body.LastName,
			Email:      body.Email,
			Phone:      body.Phone,
		},
		TrailID:       body.TrailID,
		VisitDate:     date,
		Window:        window,
		People:        body.People,
		Observations:  body.Observations,
		Mode:          mode,
		GuideID:       body.GuideID,
		WindowStartAt: body.WindowStartAt,
		WindowEndAt:   body.WindowEndAt,
		IntervalSec:   body.IntervalSec,
	}
	id, err := s.Jobs.Create(r.Context(), j)
	if err != nil {
		s.writeError(w, domain.NewValidationError("job", err.Error()))
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// --- helpers ---

func tupleParams(r *http.Request) (int64, time.Time, error) {
	trailID, err := strconv.ParseInt(r.URL.Query().Get("trail_id"), 10, 64)
	if err != nil || trailID <= 0 {
		return 0, time.Time{}, domain.NewValidationError("trail_id", "required")
	}
	date, err := time.Parse(domain.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		return 0, time.Time{}, domain.NewValidationError("date", "want YYYY-MM-DD")
	}
	return trailID, date, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "bad id")
	}
	return id, nil
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	var te *domain.InvalidTransitionError

	switch {
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ve.Reason, Field: ve.Field})
	case errors.As(err, &te):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: te.Error(), From: te.From, To: te.To})
	case domain.IsCapacityExceeded(err):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: "slot no longer available"})
	case errors.Is(err, domain.ErrNotYetCompleted):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case domain.IsUpstreamUnavailable(err):
		s.Log.Warn().Err(err).Msg("upstream unavailable")
		s.writeJSON(w, http.StatusBadGateway, errorBody{Error: "park service unavailable"})
	default:
		s.Log.Error().Err(err).Msg("internal error")
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
