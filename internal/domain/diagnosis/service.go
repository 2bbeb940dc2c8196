package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/appointment"
)

// Service creates and maintains diagnoses. Creating one closes out the
// linked appointment, so the appointment repository is a direct dependency.
type Service struct {
	diags           Repository
	appts           appointment.Repository
	registrationFee int64
}

func NewService(diags Repository, appts appointment.Repository, registrationFee int64) *Service {
	return &Service{diags: diags, appts: appts, registrationFee: registrationFee}
}

// CreateRequest is the clinical input; every money total is derived
// server-side from DoctorFee and the drug lines. DoctorFee is a pointer so
// an omitted fee is distinguishable from a free consultation.
type CreateRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Diagnosis     string    `json:"diagnosis"`
	Symptoms      string    `json:"symptoms"`
	Notes         *string   `json:"notes"`
	Drugs         []Drug    `json:"drugs"`
	DoctorFee     *int64    `json:"doctor_fee"`
}

func validateDrugs(drugs []Drug) error {
	for i, drug := range drugs {
		if strings.TrimSpace(drug.Name) == "" {
			return fmt.Errorf("%w: drug %d has no name", ErrMissingFields, i+1)
		}
		if drug.Quantity <= 0 {
			return fmt.Errorf("%w: drug %q quantity must be positive", ErrValidation, drug.Name)
		}
		if drug.Price < 0 {
			return fmt.Errorf("%w: drug %q price cannot be negative", ErrValidation, drug.Name)
		}
	}
	return nil
}

// Create records the diagnosis and force-completes the appointment: a
// booked or in_session appointment moves to completed in the same call. A
// cancelled appointment cannot be diagnosed.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Diagnosis, error) {
	if req.AppointmentID == uuid.Nil {
		return nil, fmt.Errorf("%w: appointment_id", ErrMissingFields)
	}
	if strings.TrimSpace(req.Diagnosis) == "" {
		return nil, fmt.Errorf("%w: diagnosis", ErrMissingFields)
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		return nil, fmt.Errorf("%w: symptoms", ErrMissingFields)
	}
	if req.DoctorFee == nil {
		return nil, fmt.Errorf("%w: doctor_fee", ErrMissingFields)
	}
	if *req.DoctorFee < 0 {
		return nil, fmt.Errorf("%w: doctor_fee cannot be negative", ErrValidation)
	}
	if err := validateDrugs(req.Drugs); err != nil {
		return nil, err
	}

	appt, err := s.appts.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			return nil, fmt.Errorf("%w: appointment does not exist", ErrValidation)
		}
		return nil, err
	}
	if appt.Status == appointment.StatusCancelled {
		return nil, fmt.Errorf("%w: appointment is cancelled", ErrValidation)
	}

	drugs := req.Drugs
	if drugs == nil {
		drugs = []Drug{}
	}
	symptoms := req.Symptoms
	d := &Diagnosis{
		AppointmentID:   appt.ID,
		PatientID:       appt.PatientID,
		DoctorID:        appt.DoctorID,
		Diagnosis:       req.Diagnosis,
		Symptoms:        &symptoms,
		Notes:           req.Notes,
		Drugs:           drugs,
		RegistrationFee: s.registrationFee,
		DoctorFee:       *req.DoctorFee,
	}
	d.ComputeTotals()

	if err := s.diags.Create(ctx, d); err != nil {
		return nil, err
	}

	if appt.Status != appointment.StatusCompleted {
		if _, err := s.appts.SetStatus(ctx, appt.ID, appt.Status, appointment.StatusCompleted, nil); err != nil {
			// The diagnosis is already recorded; surface the close-out
			// failure rather than losing it.
			return nil, fmt.Errorf("diagnosis saved but appointment not completed: %w", err)
		}
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	return s.diags.GetByID(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Diagnosis, error) {
	return s.diags.GetByAppointmentID(ctx, appointmentID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error) {
	return s.diags.ListByPatient(ctx, patientID, limit, offset)
}

// UpdateRequest amends the clinical content of an existing diagnosis. Nil
// fields are left unchanged; totals are recomputed when drugs or the fee
// change.
type UpdateRequest struct {
	Diagnosis *string `json:"diagnosis"`
	Symptoms  *string `json:"symptoms"`
	Notes     *string `json:"notes"`
	Drugs     []Drug  `json:"drugs"`
	DoctorFee *int64  `json:"doctor_fee"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*Diagnosis, error) {
	d, err := s.diags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Diagnosis != nil {
		if strings.TrimSpace(*req.Diagnosis) == "" {
			return nil, fmt.Errorf("%w: diagnosis", ErrMissingFields)
		}
		d.Diagnosis = *req.Diagnosis
	}
	if req.Symptoms != nil {
		d.Symptoms = req.Symptoms
	}
	if req.Notes != nil {
		d.Notes = req.Notes
	}
	if req.Drugs != nil {
		if err := validateDrugs(req.Drugs); err != nil {
			return nil, err
		}
		d.Drugs = req.Drugs
	}
	if req.DoctorFee != nil {
		if *req.DoctorFee < 0 {
			return nil, fmt.Errorf("%w: doctor_fee cannot be negative", ErrValidation)
		}
		d.DoctorFee = *req.DoctorFee
	}
	d.ComputeTotals()

	if err := s.diags.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// RevenueStats aggregates billing over an inclusive date range, optionally
// narrowed to one doctor.
func (s *Service) RevenueStats(ctx context.Context, startDate, endDate string, doctorID *uuid.UUID) (*RevenueStats, error) {
	if !appointment.ValidDate(startDate) || !appointment.ValidDate(endDate) {
		return nil, fmt.Errorf("%w: start_date and end_date must be YYYY-MM-DD", ErrValidation)
	}
	if startDate > endDate {
		return nil, fmt.Errorf("%w: start_date is after end_date", ErrValidation)
	}
	return s.diags.RevenueStats(ctx, StatsFilter{
		StartDate: startDate,
		EndDate:   endDate,
		DoctorID:  doctorID,
	})
}
