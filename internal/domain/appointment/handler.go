package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq/internal/platform/auth"
	"github.com/clinicq/clinicq/pkg/pagination"
	"github.com/clinicq/clinicq/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	read := auth.RequireRole("patient", "doctor", "staff")
	g.POST("/appointments", h.Book, auth.RequireRole("patient", "staff"))
	g.POST("/appointments/walk-in", h.WalkIn, auth.RequireRole("staff"))
	g.GET("/appointments", h.List, read)
	g.GET("/appointments/:id", h.Get, read)
	g.PUT("/appointments/:id", h.Update, auth.RequireRole("doctor", "staff"))
	g.DELETE("/appointments/:id", h.Cancel, auth.RequireRole("patient", "staff"))
}

func (h *Handler) Book(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Book(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return respond.Created(c, a)
}

func (h *Handler) WalkIn(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.AddWalkIn(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return respond.Created(c, a)
}

// List serves two shapes: ?doctor_id&date returns the doctor's full day in
// queue order, ?patient_id returns the patient's paginated history.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if doctor := c.QueryParam("doctor_id"); doctor != "" {
		doctorID, err := uuid.Parse(doctor)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		appts, err := h.svc.ListByDoctorDate(ctx, doctorID, c.QueryParam("date"))
		if err != nil {
			return httpError(err)
		}
		return respond.OK(c, appts)
	}

	if patient := c.QueryParam("patient_id"); patient != "" {
		patientID, err := uuid.Parse(patient)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		p := pagination.FromContext(c)
		appts, total, err := h.svc.ListByPatient(ctx, patientID, p.Limit, p.Offset)
		if err != nil {
			return httpError(err)
		}
		return respond.OK(c, pagination.NewResponse(appts, total, p.Limit, p.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "doctor_id or patient_id is required")
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, a)
}

// UpdateRequest dispatches on which fields are present: status performs a
// lifecycle transition, date/time perform a reschedule. Mixing both in one
// call is rejected.
type UpdateRequest struct {
	Status *Status `json:"status"`
	Date   *string `json:"date"`
	Time   *string `json:"time"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	switch {
	case req.Status != nil && (req.Date != nil || req.Time != nil):
		return echo.NewHTTPError(http.StatusBadRequest, "cannot change status and reschedule in one request")
	case req.Status != nil:
		a, err := h.svc.Transition(ctx, id, *req.Status)
		if err != nil {
			return httpError(err)
		}
		return respond.OK(c, a)
	case req.Date != nil && req.Time != nil:
		a, err := h.svc.Reschedule(ctx, id, *req.Date, *req.Time)
		if err != nil {
			return httpError(err)
		}
		return respond.OK(c, a)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "provide status, or both date and time")
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var req cancelRequest
	// Body is optional on cancel.
	_ = c.Bind(&req)

	a, err := h.svc.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, a)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrSessionOccupied):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return err
}
