package identity

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
	write := auth.RequireRole("staff")

	g.POST("/patients", h.CreatePatient, write)
	g.GET("/patients", h.ListPatients, auth.RequireRole("doctor", "staff"))
	g.GET("/patients/:id", h.GetPatient, read)
	g.PUT("/patients/:id", h.UpdatePatient, write)

	g.POST("/doctors", h.CreateDoctor, write)
	g.GET("/doctors", h.ListDoctors, read)
	g.GET("/doctors/:id", h.GetDoctor, read)
	g.PUT("/doctors/:id", h.UpdateDoctor, write)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return respond.Created(c, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, &req)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(),
		c.QueryParam("search"), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, pagination.NewResponse(patients, total, p.Limit, p.Offset))
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req DoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return respond.Created(c, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var req DoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, &req)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	p := pagination.FromContext(c)
	activeOnly := c.QueryParam("active") == "true"
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(), activeOnly, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, pagination.NewResponse(doctors, total, p.Limit, p.Offset))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
