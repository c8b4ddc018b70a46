package parkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/trailbook/internal/domain/booking"
)

// Client talks to the park reservation backend. The backend is
// authoritative for capacity and state; this client only shapes requests
// and maps failures into the domain error taxonomy.
type Client struct {
	hc      *http.Client
	baseURL string
	apiKey  string
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		hc:      &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
	}
}

func (c *Client) FetchAvailableWindows(ctx context.Context, trailID int64, date time.Time) ([]booking.TimeWindow, error) {
	params := map[string]string{
		"senderoId": strconv.FormatInt(trailID, 10),
		"fecha":     date.Format(booking.DateFormat),
	}
	var dtos []windowDTO
	if err := c.get(ctx, "/reserva/horarios-disponibles", params, &dtos); err != nil {
		return nil, err
	}
	// Empty is a valid terminal result: fully booked or no schedule.
	out := make([]booking.TimeWindow, 0, len(dtos))
	for _, d := range dtos {
		w := d.toDomain()
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("availability response: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (c *Client) FetchRemainingCapacity(ctx context.Context, trailID int64, date time.Time) (int, error) {
	params := map[string]string{
		"senderoId": strconv.FormatInt(trailID, 10),
		"fecha":     date.Format(booking.DateFormat),
	}
	var dto capacityDTO
	if err := c.get(ctx, "/sendero/cupo-disponible", params, &dto); err != nil {
		return 0, err
	}
	if dto.CuposDisponibles < 0 {
		return 0, fmt.Errorf("capacity response: negative remaining capacity %d", dto.CuposDisponibles)
	}
	return dto.CuposDisponibles, nil
}

func (c *Client) FetchEligibleGuides(ctx context.Context, trailID int64, date time.Time, w booking.TimeWindow) ([]booking.Guide, error) {
	params := map[string]string{
		"senderoId":  strconv.FormatInt(trailID, 10),
		"fecha":      date.Format(booking.DateFormat),
		"horaInicio": w.Start,
		"horaFin":    w.End,
	}
	var dtos []guideDTO
	if err := c.get(ctx, "/guia/disponibles", params, &dtos); err != nil {
		return nil, err
	}
	out := make([]booking.Guide, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) GetTrail(ctx context.Context, trailID int64) (booking.Trail, error) {
	var dto trailDTO
	if err := c.get(ctx, "/sendero/findById/"+strconv.FormatInt(trailID, 10), nil, &dto); err != nil {
		return booking.Trail{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) ListActiveTrails(ctx context.Context) ([]booking.Trail, error) {
	var dtos []trailDTO
	if err := c.get(ctx, "/sendero/findAllActivos", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]booking.Trail, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) GetReservation(ctx context.Context, id int64) (booking.Reservation, error) {
	var dto reservationDTO
	if err := c.get(ctx, "/reserva/findById/"+strconv.FormatInt(id, 10), nil, &dto); err != nil {
		return booking.Reservation{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) ListReservationsByVisitor(ctx context.Context, visitorID int64) ([]booking.Reservation, error) {
	var dtos []reservationDTO
	if err := c.get(ctx, "/reserva/findByVisitante/"+strconv.FormatInt(visitorID, 10), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]booking.Reservation, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) GetAssignment(ctx context.Context, id int64) (*booking.Assignment, error) {
	var dto assignmentDTO
	if err := c.get(ctx, "/asignaciones/"+strconv.FormatInt(id, 10), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// CreateReservation is one capability with three backend paths selected
// by guide mode; the payload shape is identical on all of them.
func (c *Client) CreateReservation(ctx context.Context, req booking.ReservationRequest) (booking.CreateResult, error) {
	var path string
	switch req.Mode {
	case booking.GuideModeNone:
		path = "/reserva/save"
	case booking.GuideModeAuto:
		path = "/reserva/crear-con-guia"
	case booking.GuideModeManual:
		path = "/reserva/crear-con-guia-manual"
	default:
		return booking.CreateResult{}, booking.NewValidationError("guideMode", "unknown mode")
	}

	var dto reservationDTO
	if err := c.send(ctx, http.MethodPost, path, toCreateDTO(req), &dto); err != nil {
		return booking.CreateResult{}, err
	}
	res := dto.toDomain()
	return booking.CreateResult{
		ReservationID:    res.ID,
		ConfirmationCode: res.ConfirmationCode,
		State:            res.State,
		Assignment:       res.Assignment,
	}, nil
}

func (c *Client) TransitionReservation(ctx context.Context, id int64, action booking.TransitionAction, reason string) (booking.Reservation, error) {
	wire, ok := transitionActionToWire[action]
	if !ok {
		return booking.Reservation{}, booking.NewValidationError("action", "unknown transition action")
	}
	path := "/reserva/" + wire + "/" + strconv.FormatInt(id, 10)
	var params map[string]string
	if reason != "" {
		params = map[string]string{"motivo": reason}
	}
	var dto reservationDTO
	if err := c.roundTrip(ctx, http.MethodPut, path, params, nil, &dto); err != nil {
		return booking.Reservation{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) StartTour(ctx context.Context, assignmentID int64, observations string) (*booking.Assignment, error) {
	body := struct {
		IDAsignacion        int64  `json:"idAsignacion"`
		ObservacionesInicio string `json:"observacionesInicio,omitempty"`
	}{assignmentID, observations}
	var dto assignmentDTO
	if err := c.send(ctx, http.MethodPost, "/asignaciones/iniciar", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) FinishTour(ctx context.Context, assignmentID int64, report booking.TourReport) (*booking.Assignment, error) {
	body := struct {
		IDAsignacion           int64  `json:"idAsignacion"`
		ObservacionesGuia      string `json:"observacionesGuia"`
		HuboIncidencias        bool   `json:"huboIncidencias"`
		DescripcionIncidencias string `json:"descripcionIncidencias,omitempty"`
	}{assignmentID, report.Observations, report.HadIncident, report.IncidentDescription}
	var dto assignmentDTO
	if err := c.send(ctx, http.MethodPost, "/asignaciones/finalizar", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) RateTour(ctx context.Context, assignmentID int64, rating int, comment string) (*booking.Assignment, error) {
	body := struct {
		Calificacion int    `json:"calificacion"`
		Comentario   string `json:"comentario,omitempty"`
	}{rating, comment}
	path := "/asignaciones/" + strconv.FormatInt(assignmentID, 10) + "/calificar"
	var dto assignmentDTO
	if err := c.send(ctx, http.MethodPatch, path, body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// --- transport ---

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	return c.roundTrip(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	return c.roundTrip(ctx, method, path, nil, payload, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, params map[string]string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("authorization", "Bearer "+c.apiKey)
	}
	if params != nil {
		q := req.URL.Query()
		for k, v := range params {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return &booking.UpstreamError{Op: method + " " + path, Err: err}
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return &booking.UpstreamError{Op: method + " " + path, Err: err}
	}

	switch {
	case res.StatusCode >= 500:
		return &booking.UpstreamError{Op: method + " " + path, Err: fmt.Errorf("status %d", res.StatusCode)}
	case res.StatusCode == http.StatusNotFound:
		return booking.ErrNotFound
	case res.StatusCode >= 400:
		return mapAPIError(res.StatusCode, b)
	}

	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// mapAPIError turns a 4xx payload into the domain taxonomy. Capacity
// rejections are authoritative and must surface as such even when the
// client's last capacity check looked fine.
func mapAPIError(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)

	switch {
	case ae.Code == "CUPO_EXCEDIDO",
		status == http.StatusConflict && containsFold(ae.Message, "cupo"),
		containsFold(ae.Message, "cupo excedido"):
		return &booking.CapacityExceededError{Message: ae.Message}
	case ae.Code == "TRANSICION_INVALIDA":
		return &booking.InvalidTransitionError{From: ae.EstadoActual, To: ae.EstadoSolicitado}
	}

	field := ae.Field
	if field == "" {
		field = "request"
	}
	msg := ae.Message
	if msg == "" {
		msg = fmt.Sprintf("rejected with status %d", status)
	}
	return booking.NewValidationError(field, msg)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
