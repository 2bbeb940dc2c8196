package diagnosis

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
	g.POST("/diagnoses", h.Create, auth.RequireRole("doctor"))
	g.GET("/diagnoses", h.List, read)
	// Registered before /diagnoses/:id so echo does not treat it as an id.
	g.GET("/diagnoses/revenue-stats", h.RevenueStats, auth.RequireRole("staff"))
	g.GET("/diagnoses/:id", h.Get, read)
	g.PUT("/diagnoses/:id", h.Update, auth.RequireRole("doctor"))
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	d, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return respond.Created(c, d)
}

// List serves ?appointment_id= for the single linked record and
// ?patient_id= for the paginated history.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if apptParam := c.QueryParam("appointment_id"); apptParam != "" {
		appointmentID, err := uuid.Parse(apptParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment_id")
		}
		d, err := h.svc.GetByAppointment(ctx, appointmentID)
		if err != nil {
			return httpError(err)
		}
		return respond.OK(c, d)
	}

	if patientParam := c.QueryParam("patient_id"); patientParam != "" {
		patientID, err := uuid.Parse(patientParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		p := pagination.FromContext(c)
		diags, total, err := h.svc.ListByPatient(ctx, patientID, p.Limit, p.Offset)
		if err != nil {
			return httpError(err)
		}
		return respond.OK(c, pagination.NewResponse(diags, total, p.Limit, p.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "appointment_id or patient_id is required")
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid diagnosis id")
	}

	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, d)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid diagnosis id")
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	d, err := h.svc.Update(c.Request().Context(), id, &req)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, d)
}

func (h *Handler) RevenueStats(c echo.Context) error {
	var doctorID *uuid.UUID
	if doctorParam := c.QueryParam("doctor_id"); doctorParam != "" {
		id, err := uuid.Parse(doctorParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		doctorID = &id
	}

	stats, err := h.svc.RevenueStats(c.Request().Context(),
		c.QueryParam("start_date"), c.QueryParam("end_date"), doctorID)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, stats)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateDiagnosis):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return err
}
