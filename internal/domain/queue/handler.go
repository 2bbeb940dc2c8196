package queue

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq/internal/domain/appointment"
	"github.com/clinicq/clinicq/internal/platform/auth"
	"github.com/clinicq/clinicq/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	control := auth.RequireRole("doctor", "staff")
	g.GET("/queue/status", h.Status, auth.RequireRole("patient", "doctor", "staff"))
	g.POST("/queue/start", h.Start, control)
	g.POST("/queue/pause", h.Pause, control)
	g.POST("/queue/resume", h.Resume, control)
	g.POST("/queue/stop", h.Stop, control)
	g.POST("/queue/call-next", h.CallNext, control)
	g.POST("/queue/reorder", h.Reorder, control)
}

// sessionRequest is the shared body for queue control actions.
type sessionRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Reason   string    `json:"reason"`
}

func bindSession(c echo.Context) (*sessionRequest, error) {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return &req, nil
}

func (h *Handler) Status(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}

	st, err := h.svc.Status(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, st)
}

func (h *Handler) Start(c echo.Context) error {
	req, err := bindSession(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.Start(c.Request().Context(), req.DoctorID, req.Date)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, sess)
}

func (h *Handler) Pause(c echo.Context) error {
	req, err := bindSession(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.Pause(c.Request().Context(), req.DoctorID, req.Date, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, sess)
}

func (h *Handler) Resume(c echo.Context) error {
	req, err := bindSession(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.Resume(c.Request().Context(), req.DoctorID, req.Date)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, sess)
}

func (h *Handler) Stop(c echo.Context) error {
	req, err := bindSession(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.Stop(c.Request().Context(), req.DoctorID, req.Date)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, sess)
}

func (h *Handler) CallNext(c echo.Context) error {
	req, err := bindSession(c)
	if err != nil {
		return err
	}
	a, err := h.svc.CallNext(c.Request().Context(), req.DoctorID, req.Date)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, a)
}

func (h *Handler) Reorder(c echo.Context) error {
	req, err := bindSession(c)
	if err != nil {
		return err
	}
	st, err := h.svc.ApplyPriorityOrder(c.Request().Context(), req.DoctorID, req.Date)
	if err != nil {
		return httpError(err)
	}
	return respond.OK(c, st)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrReasonRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrQueuePaused),
		errors.Is(err, ErrQueueStopped),
		errors.Is(err, appointment.ErrSessionOccupied),
		errors.Is(err, appointment.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrQueueEmpty):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, appointment.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}
