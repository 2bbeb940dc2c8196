package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Notifier pushes appointment changes to clients watching a doctor's queue.
// Delivery is best-effort and happens after the store write.
type Notifier interface {
	AppointmentUpdated(doctorID uuid.UUID, date string, payload interface{})
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) AppointmentUpdated(uuid.UUID, string, interface{}) {}

type Service struct {
	appts    Repository
	notifier Notifier
}

func NewService(appts Repository, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{appts: appts, notifier: notifier}
}

// BookRequest carries the fields a patient booking or staff walk-in needs.
type BookRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Priority  Priority  `json:"priority"`
	Notes     *string   `json:"notes"`
}

func (r *BookRequest) validate() error {
	if r.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if r.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if !ValidDate(r.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if !ValidSlot(r.Time) {
		return fmt.Errorf("%w: time must be a half-hour slot (HH:MM)", ErrValidation)
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, r.Priority)
	}
	return nil
}

// Book creates a patient-initiated appointment with the next queue number
// for the doctor's day.
func (s *Service) Book(ctx context.Context, req *BookRequest) (*Appointment, error) {
	return s.create(ctx, req, SourceBooked)
}

// AddWalkIn creates a staff-initiated appointment for a patient present at
// the clinic. Walk-ins join the same numbered queue as bookings.
func (s *Service) AddWalkIn(ctx context.Context, req *BookRequest) (*Appointment, error) {
	return s.create(ctx, req, SourceWalkIn)
}

func (s *Service) create(ctx context.Context, req *BookRequest, source Source) (*Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    StatusBooked,
		Priority:  req.Priority,
		Source:    source,
		Notes:     req.Notes,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notifier.AppointmentUpdated(a.DoctorID, a.Date, a)
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return s.appts.ListByDoctorDate(ctx, doctorID, date)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByPatient(ctx, patientID, limit, offset)
}

// Waiting returns the ordered waiting list for a doctor's day.
func (s *Service) Waiting(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	appts, err := s.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return OrderWaiting(appts), nil
}

// Transition validates and applies a status change. Entering in_session
// goes through the repository's atomic single-session guard.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}

	var updated *Appointment
	if to == StatusInSession {
		updated, err = s.appts.BeginSession(ctx, id)
	} else {
		updated, err = s.appts.SetStatus(ctx, id, a.Status, to, nil)
	}
	if err != nil {
		return nil, err
	}

	s.notifier.AppointmentUpdated(updated.DoctorID, updated.Date, updated)
	return updated, nil
}

// Cancel soft-deletes an appointment from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, StatusCancelled)
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	updated, err := s.appts.SetStatus(ctx, id, a.Status, StatusCancelled, reasonPtr)
	if err != nil {
		return nil, err
	}

	s.notifier.AppointmentUpdated(updated.DoctorID, updated.Date, updated)
	return updated, nil
}

// Reschedule moves a booked appointment to a new date and time. Moving to
// another day assigns a fresh queue number there; the previous slot is kept
// on the record for display.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date, slot string) (*Appointment, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: time must be a half-hour slot (HH:MM)", ErrValidation)
	}

	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusBooked {
		return nil, fmt.Errorf("%w: only booked appointments can be rescheduled", ErrInvalidTransition)
	}

	previous := a.Date + " " + a.Time
	a.RescheduledFrom = &previous
	a.Date = date
	a.Time = slot

	// The repository re-queues the appointment when the date changes.
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}

	s.notifier.AppointmentUpdated(a.DoctorID, a.Date, a)
	return a, nil
}
