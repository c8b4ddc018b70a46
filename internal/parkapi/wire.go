package parkapi

import (
	"time"

	"github.com/example/trailbook/internal/domain/booking"
)

// Wire DTOs for the park backend. Field names follow the backend's
// Spanish API; conversion to domain types happens here so malformed
// responses fail at the boundary.

type trailDTO struct {
	IDSendero     int64   `json:"idSendero"`
	Nombre        string  `json:"nombre"`
	Dificultad    string  `json:"dificultad"`
	DistanciaKm   float64 `json:"distanciaKm"`
	DuracionHoras float64 `json:"duracionHoras"`
	CupoMaximoDia int     `json:"cupoMaximoDia"`
	RequiereGuia  string  `json:"requiereGuia"` // "S" / "N"
	Estado        string  `json:"estado"`
}

type windowDTO struct {
	HoraInicio string `json:"horaInicio"`
	HoraFin    string `json:"horaFin"`
}

type capacityDTO struct {
	IDSendero          int64  `json:"idSendero"`
	FechaVisita        string `json:"fechaVisita"`
	PersonasReservadas int    `json:"personasReservadas"`
	CuposDisponibles   int    `json:"cuposDisponibles"`
}

type guideDTO struct {
	IDGuia         int64  `json:"idGuia"`
	Nombre         string `json:"nombre"`
	Apellido       string `json:"apellido"`
	Especialidades string `json:"especialidades"`
	TamanoMaxGrupo int    `json:"tamanoMaxGrupo"`
	Estado         string `json:"estado"`
}

type visitorDTO struct {
	Cedula   string `json:"cedula"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Telefono string `json:"telefono,omitempty"`
}

type assignmentDTO struct {
	IDAsignacion           int64      `json:"idAsignacion"`
	IDReserva              int64      `json:"idReserva"`
	Guia                   guideDTO   `json:"guia"`
	FechaAsignacion        time.Time  `json:"fechaAsignacion"`
	HoraInicioReal         *time.Time `json:"horaInicioReal"`
	HoraFinReal            *time.Time `json:"horaFinReal"`
	ObservacionesGuia      string     `json:"observacionesGuia"`
	HuboIncidencias        bool       `json:"huboIncidencias"`
	DescripcionIncidencias string     `json:"descripcionIncidencias"`
	Calificacion           *int       `json:"calificacion"`
	ComentarioCalificacion string     `json:"comentarioCalificacion"`
}

type reservationDTO struct {
	IDReserva          int64          `json:"idReserva"`
	CodigoConfirmacion string         `json:"codigoConfirmacion"`
	Estado             string         `json:"estado"`
	FechaVisita        string         `json:"fechaVisita"`
	HoraInicio         string         `json:"horaInicio"`
	HoraFin            string         `json:"horaFin"`
	NumeroPersonas     int            `json:"numeroPersonas"`
	Observaciones      string         `json:"observaciones"`
	FechaCreacion      time.Time      `json:"fechaCreacion"`
	Visitante          visitorDTO     `json:"visitante"`
	Sendero            trailDTO       `json:"sendero"`
	Asignacion         *assignmentDTO `json:"asignacion"`
}

type createRequestDTO struct {
	CedulaVisitante   string `json:"cedulaVisitante"`
	NombreVisitante   string `json:"nombreVisitante,omitempty"`
	ApellidoVisitante string `json:"apellidoVisitante,omitempty"`
	EmailVisitante    string `json:"emailVisitante,omitempty"`
	TelefonoVisitante string `json:"telefonoVisitante,omitempty"`
	IDSendero         int64  `json:"idSendero"`
	FechaVisita       string `json:"fechaVisita"`
	HoraInicio        string `json:"horaInicio"`
	HoraFin           string `json:"horaFin"`
	NumeroPersonas    int    `json:"numeroPersonas"`
	Observaciones     string `json:"observaciones,omitempty"`
	IDGuia            int64  `json:"idGuia,omitempty"`
	ReferenciaCliente string `json:"referenciaCliente,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`

	EstadoActual     string `json:"estadoActual"`
	EstadoSolicitado string `json:"estadoSolicitado"`
}

var difficultyFromWire = map[string]booking.Difficulty{
	"FACIL":    booking.DifficultyEasy,
	"MODERADO": booking.DifficultyModerate,
	"DIFICIL":  booking.DifficultyHard,
	"EXTREMO":  booking.DifficultyExtreme,
}

var trailStatusFromWire = map[string]booking.TrailStatus{
	"ACTIVO":        booking.TrailActive,
	"INACTIVO":      booking.TrailInactive,
	"MANTENIMIENTO": booking.TrailMaintenance,
}

var reservationStateFromWire = map[string]booking.ReservationState{
	"PENDIENTE":  booking.StatePending,
	"CONFIRMADA": booking.StateConfirmed,
	"COMPLETADA": booking.StateCompleted,
	"CANCELADA":  booking.StateCancelled,
	"NO_ASISTIO": booking.StateNoShow,
}

var transitionActionToWire = map[booking.TransitionAction]string{
	booking.ActionConfirm:  "confirmar",
	booking.ActionCancel:   "cancelar",
	booking.ActionComplete: "completar",
	booking.ActionNoShow:   "no-asistio",
}

func (d trailDTO) toDomain() booking.Trail {
	status, ok := trailStatusFromWire[d.Estado]
	if !ok {
		status = booking.TrailInactive
	}
	diff, ok := difficultyFromWire[d.Dificultad]
	if !ok {
		diff = booking.Difficulty(d.Dificultad)
	}
	return booking.Trail{
		ID:            d.IDSendero,
		Name:          d.Nombre,
		Difficulty:    diff,
		DistanceKm:    d.DistanciaKm,
		DurationHours: d.DuracionHoras,
		DailyCapacity: d.CupoMaximoDia,
		RequiresGuide: d.RequiereGuia == "S",
		Status:        status,
	}
}

func (d windowDTO) toDomain() booking.TimeWindow {
	return booking.TimeWindow{
		Start: booking.NormalizeClock(d.HoraInicio),
		End:   booking.NormalizeClock(d.HoraFin),
	}
}

func (d guideDTO) toDomain() booking.Guide {
	name := d.Nombre
	if d.Apellido != "" {
		name = d.Nombre + " " + d.Apellido
	}
	status := booking.GuideInactive
	if d.Estado == "ACTIVO" {
		status = booking.GuideActive
	}
	return booking.Guide{
		ID:           d.IDGuia,
		Name:         name,
		Specialties:  booking.SplitSpecialties(d.Especialidades),
		MaxGroupSize: d.TamanoMaxGrupo,
		Status:       status,
	}
}

func (d assignmentDTO) toDomain() *booking.Assignment {
	return &booking.Assignment{
		ID:                  d.IDAsignacion,
		ReservationID:       d.IDReserva,
		Guide:               d.Guia.toDomain(),
		AssignedAt:          d.FechaAsignacion,
		StartedAt:           d.HoraInicioReal,
		FinishedAt:          d.HoraFinReal,
		GuideObservations:   d.ObservacionesGuia,
		HadIncident:         d.HuboIncidencias,
		IncidentDescription: d.DescripcionIncidencias,
		Rating:              d.Calificacion,
		RatingComment:       d.ComentarioCalificacion,
	}
}

func (d reservationDTO) toDomain() booking.Reservation {
	state, ok := reservationStateFromWire[d.Estado]
	if !ok {
		state = booking.ReservationState(d.Estado)
	}
	visitDate, _ := time.Parse(booking.DateFormat, d.FechaVisita)
	r := booking.Reservation{
		ID:               d.IDReserva,
		ConfirmationCode: d.CodigoConfirmacion,
		State:            state,
		VisitDate:        visitDate,
		Window: booking.TimeWindow{
			Start: booking.NormalizeClock(d.HoraInicio),
			End:   booking.NormalizeClock(d.HoraFin),
		},
		People:       d.NumeroPersonas,
		Observations: d.Observaciones,
		CreatedAt:    d.FechaCreacion,
		Trail:        d.Sendero.toDomain(),
		Visitor: booking.Visitor{
			NationalID: d.Visitante.Cedula,
			FirstName:  d.Visitante.Nombre,
			LastName:   d.Visitante.Apellido,
			Email:      d.Visitante.Email,
			Phone:      d.Visitante.Telefono,
		},
	}
	if d.Asignacion != nil {
		r.Assignment = d.Asignacion.toDomain()
	}
	return r
}

func toCreateDTO(req booking.ReservationRequest) createRequestDTO {
	return createRequestDTO{
		CedulaVisitante:   req.Visitor.NationalID,
		NombreVisitante:   req.Visitor.FirstName,
		ApellidoVisitante: req.Visitor.LastName,
		EmailVisitante:    req.Visitor.Email,
		TelefonoVisitante: req.Visitor.Phone,
		IDSendero:         req.TrailID,
		FechaVisita:       req.VisitDate.Format(booking.DateFormat),
		HoraInicio:        req.Window.Start,
		HoraFin:           req.Window.End,
		NumeroPersonas:    req.People,
		Observaciones:     req.Observations,
		IDGuia:            req.GuideID,
		ReferenciaCliente: req.ClientRef,
	}
}
