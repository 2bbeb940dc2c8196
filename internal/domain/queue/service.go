package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/appointment"
)

// Notifier pushes queue and appointment changes to clients watching a
// doctor's day.
type Notifier interface {
	QueueStatusUpdated(doctorID uuid.UUID, date string, payload interface{})
	AppointmentUpdated(doctorID uuid.UUID, date string, payload interface{})
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) QueueStatusUpdated(uuid.UUID, string, interface{}) {}
func (NopNotifier) AppointmentUpdated(uuid.UUID, string, interface{}) {}

// Service owns the per-doctor-day session machine and the queue operations
// that depend on it. Appointment state itself lives in the appointment
// repository; this service gates and orders it.
type Service struct {
	sessions Repository
	appts    appointment.Repository
	notifier Notifier
}

func NewService(sessions Repository, appts appointment.Repository, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{sessions: sessions, appts: appts, notifier: notifier}
}

func validateKey(doctorID uuid.UUID, date string) error {
	if doctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if !appointment.ValidDate(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

// Status assembles the dashboard view for a doctor's day. Reading the
// status of an untouched day materializes its session in the active state.
func (s *Service) Status(ctx context.Context, doctorID uuid.UUID, date string) (*Status, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return s.buildStatus(ctx, sess)
}

func (s *Service) buildStatus(ctx context.Context, sess *Session) (*Status, error) {
	appts, err := s.appts.ListByDoctorDate(ctx, sess.DoctorID, sess.Date)
	if err != nil {
		return nil, err
	}

	st := &Status{
		DoctorID:            sess.DoctorID,
		Date:                sess.Date,
		State:               sess.State,
		PauseReason:         sess.PauseReason,
		PausedAt:            sess.PausedAt,
		CurrentAppointments: []*appointment.Appointment{},
		Waiting:             appointment.OrderWaiting(appts),
	}
	for _, a := range appts {
		switch a.Status {
		case appointment.StatusInSession:
			st.CurrentAppointments = append(st.CurrentAppointments, a)
		case appointment.StatusCompleted:
			st.CompletedCount++
		}
	}
	st.WaitingCount = len(st.Waiting)
	return st, nil
}

// Start opens the queue. Starting an already-active queue is a no-op so a
// double click on the dashboard does not error.
func (s *Service) Start(ctx context.Context, doctorID uuid.UUID, date string) (*Session, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if sess.State == StateActive {
		return sess, nil
	}
	if sess.State != StateStopped {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.State, StateActive)
	}
	return s.setState(ctx, sess, StateActive, nil)
}

// Pause halts call-next until resumed. The reason is mandatory and shown to
// waiting patients.
func (s *Service) Pause(ctx context.Context, doctorID uuid.UUID, date, reason string) (*Session, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if !sess.State.CanTransitionTo(StatePaused) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.State, StatePaused)
	}
	return s.setState(ctx, sess, StatePaused, &reason)
}

// Resume reopens a paused queue and clears the pause reason.
func (s *Service) Resume(ctx context.Context, doctorID uuid.UUID, date string) (*Session, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if sess.State != StatePaused {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.State, StateActive)
	}
	return s.setState(ctx, sess, StateActive, nil)
}

// Stop closes the queue for the day. A paused queue must be resumed first
// so its pause reason is resolved explicitly.
func (s *Service) Stop(ctx context.Context, doctorID uuid.UUID, date string) (*Session, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if !sess.State.CanTransitionTo(StateStopped) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.State, StateStopped)
	}
	return s.setState(ctx, sess, StateStopped, nil)
}

func (s *Service) setState(ctx context.Context, sess *Session, to State, pauseReason *string) (*Session, error) {
	updated, err := s.sessions.SetState(ctx, sess.DoctorID, sess.Date, sess.State, to, pauseReason)
	if err != nil {
		return nil, err
	}
	s.notifier.QueueStatusUpdated(updated.DoctorID, updated.Date, updated)
	return updated, nil
}

// CallNext moves the lowest-numbered booked appointment into session.
// Refused while the queue is paused or stopped; the one-session-per-day
// guard in the appointment repository settles concurrent calls.
func (s *Service) CallNext(ctx context.Context, doctorID uuid.UUID, date string) (*appointment.Appointment, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	switch sess.State {
	case StatePaused:
		return nil, ErrQueuePaused
	case StateStopped:
		return nil, ErrQueueStopped
	}

	appts, err := s.appts.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	next := appointment.NextInQueue(appts)
	if next == nil {
		return nil, ErrQueueEmpty
	}

	called, err := s.appts.BeginSession(ctx, next.ID)
	if err != nil {
		return nil, err
	}

	s.notifier.AppointmentUpdated(doctorID, date, called)
	s.notifier.QueueStatusUpdated(doctorID, date, map[string]interface{}{
		"called": called,
	})
	return called, nil
}

// ApplyPriorityOrder rewrites the day's queue numbers so urgent entries come
// first, then vip, then normal, FIFO within each rank. Returns the refreshed
// status view.
func (s *Service) ApplyPriorityOrder(ctx context.Context, doctorID uuid.UUID, date string) (*Status, error) {
	if err := validateKey(doctorID, date); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetOrCreate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	appts, err := s.appts.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	// Entries already past the waiting stage keep the front of the
	// numbering in their current order; the waiting list follows in
	// priority order.
	ordered := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		if a.Status != appointment.StatusBooked {
			ordered = append(ordered, a.ID)
		}
	}
	for _, a := range appointment.OrderWaiting(appts) {
		ordered = append(ordered, a.ID)
	}

	if err := s.appts.ReassignQueueNumbers(ctx, doctorID, date, ordered); err != nil {
		return nil, err
	}

	st, err := s.buildStatus(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.notifier.QueueStatusUpdated(doctorID, date, st)
	return st, nil
}
