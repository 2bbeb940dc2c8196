package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
}

func NewService(patients PatientRepository, doctors DoctorRepository) *Service {
	return &Service{patients: patients, doctors: doctors}
}

type PatientRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	Email       *string `json:"email"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     *string `json:"address"`
}

func (r *PatientRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, req *PatientRequest) (*Patient, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p := &Patient{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *PatientRequest) (*Patient, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.Phone = req.Phone
	p.Email = req.Email
	p.DateOfBirth = req.DateOfBirth
	p.Address = req.Address
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, search, limit, offset)
}

type DoctorRequest struct {
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	ConsultFee int64   `json:"consult_fee"`
	Active     *bool   `json:"active"`
}

func (r *DoctorRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(r.Specialty) == "" {
		return fmt.Errorf("%w: specialty is required", ErrValidation)
	}
	if r.ConsultFee < 0 {
		return fmt.Errorf("%w: consult_fee cannot be negative", ErrValidation)
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, req *DoctorRequest) (*Doctor, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	d := &Doctor{
		Name:       req.Name,
		Specialty:  req.Specialty,
		Phone:      req.Phone,
		Email:      req.Email,
		ConsultFee: req.ConsultFee,
		Active:     active,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *DoctorRequest) (*Doctor, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = req.Name
	d.Specialty = req.Specialty
	d.Phone = req.Phone
	d.Email = req.Email
	d.ConsultFee = req.ConsultFee
	if req.Active != nil {
		d.Active = *req.Active
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, activeOnly, limit, offset)
}
