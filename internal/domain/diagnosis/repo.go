package diagnosis

import (
	"context"

	"github.com/google/uuid"
)

// StatsFilter bounds a revenue aggregation. Dates are inclusive calendar
// days; DoctorID narrows to one doctor when set.
type StatsFilter struct {
	StartDate string
	EndDate   string
	DoctorID  *uuid.UUID
}

type Repository interface {
	// Create inserts the diagnosis. Returns ErrDuplicateDiagnosis when the
	// appointment already has one.
	Create(ctx context.Context, d *Diagnosis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Diagnosis, error)
	Update(ctx context.Context, d *Diagnosis) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error)
	RevenueStats(ctx context.Context, filter StatsFilter) (*RevenueStats, error)
}
