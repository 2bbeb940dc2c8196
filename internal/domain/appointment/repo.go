package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the appointment, assigning the next queue number
	// within (DoctorID, Date).
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)

	// SetStatus applies a conditional status change: the row must currently
	// be in state from. Returns ErrNotFound when the appointment does not
	// exist and ErrInvalidTransition when its state has moved on.
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status, cancellationReason *string) (*Appointment, error)

	// BeginSession transitions a booked appointment to in_session, failing
	// with ErrSessionOccupied unless no other appointment for the same
	// doctor and date is in session. The check and the write are a single
	// atomic operation.
	BeginSession(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ReassignQueueNumbers rewrites queue numbers for the given doctor and
	// date so that ordered[i] receives number i+1.
	ReassignQueueNumbers(ctx context.Context, doctorID uuid.UUID, date string, ordered []uuid.UUID) error
}
