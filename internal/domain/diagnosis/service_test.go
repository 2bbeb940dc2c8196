package diagnosis

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/appointment"
)

const testRegistrationFee = 1000

// memDiags is an in-memory Repository enforcing the one-diagnosis-per-
// appointment rule.
type memDiags struct {
	mu    sync.Mutex
	diags map[uuid.UUID]*Diagnosis
}

func newMemDiags() *memDiags {
	return &memDiags{diags: make(map[uuid.UUID]*Diagnosis)}
}

func (m *memDiags) Create(_ context.Context, d *Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.diags {
		if other.AppointmentID == d.AppointmentID {
			return ErrDuplicateDiagnosis
		}
	}
	d.ID = uuid.New()
	d.PrescribedAt = time.Now()
	d.CreatedAt = d.PrescribedAt
	d.UpdatedAt = d.PrescribedAt
	cp := *d
	m.diags[d.ID] = &cp
	return nil
}

func (m *memDiags) GetByID(_ context.Context, id uuid.UUID) (*Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diags[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDiags) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.diags {
		if d.AppointmentID == appointmentID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memDiags) Update(_ context.Context, d *Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.diags[d.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = *d
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memDiags) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Diagnosis
	for _, d := range m.diags {
		if d.PatientID == patientID {
			cp := *d
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PrescribedAt.After(all[j].PrescribedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memDiags) RevenueStats(_ context.Context, filter StatsFilter) (*RevenueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &RevenueStats{StartDate: filter.StartDate, EndDate: filter.EndDate}
	for _, d := range m.diags {
		if filter.DoctorID != nil && d.DoctorID != *filter.DoctorID {
			continue
		}
		day := d.PrescribedAt.Format("2006-01-02")
		if day < filter.StartDate || day > filter.EndDate {
			continue
		}
		stats.DiagnosisCount++
		stats.RegistrationTotal += d.RegistrationFee
		stats.DoctorFeeTotal += d.DoctorFee
		stats.DrugsTotal += d.DrugsCost
		stats.TotalRevenue += d.TotalAmount
	}
	return stats, nil
}

// memAppts is just enough appointment store for diagnosis tests.
type memAppts struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*appointment.Appointment
}

func newMemAppts() *memAppts {
	return &memAppts{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *memAppts) add(status appointment.Status) *appointment.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &appointment.Appointment{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Date:      "2026-09-01",
		Time:      "09:00",
		Status:    status,
	}
	m.appts[a.ID] = a
	cp := *a
	return &cp
}

func (m *memAppts) Create(_ context.Context, a *appointment.Appointment) error { return nil }

func (m *memAppts) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppts) Update(_ context.Context, a *appointment.Appointment) error { return nil }

func (m *memAppts) ListByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) ([]*appointment.Appointment, error) {
	return nil, nil
}

func (m *memAppts) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error) {
	return nil, 0, nil
}

func (m *memAppts) SetStatus(_ context.Context, id uuid.UUID, from, to appointment.Status, reason *string) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	if a.Status != from {
		return nil, appointment.ErrInvalidTransition
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (m *memAppts) BeginSession(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return nil, appointment.ErrNotFound
}

func (m *memAppts) ReassignQueueNumbers(_ context.Context, doctorID uuid.UUID, date string, ordered []uuid.UUID) error {
	return nil
}

func newTestService() (*Service, *memAppts) {
	appts := newMemAppts()
	return NewService(newMemDiags(), appts, testRegistrationFee), appts
}

func createReq(appointmentID uuid.UUID) *CreateRequest {
	fee := int64(15000)
	return &CreateRequest{
		AppointmentID: appointmentID,
		Diagnosis:     "acute pharyngitis",
		Symptoms:      "sore throat and fever",
		DoctorFee:     &fee,
		Drugs: []Drug{
			{Name: "amoxicillin 500mg", Dosage: "500mg", Frequency: "3x daily", Duration: "7 days", Quantity: 21, Price: 500},
			{Name: "paracetamol", Dosage: "500mg", Frequency: "as needed", Duration: "5 days", Quantity: 10, Price: 200},
		},
	}
}

func TestCreate_BillingArithmetic(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusInSession)

	d, err := svc.Create(context.Background(), createReq(appt.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 21*500 + 10*200 = 12500
	if d.DrugsCost != 12500 {
		t.Errorf("drugs cost: got %d, want 12500", d.DrugsCost)
	}
	// 1000 + 15000 + 12500 = 28500
	if d.TotalAmount != 28500 {
		t.Errorf("total: got %d, want 28500", d.TotalAmount)
	}
	if d.RegistrationFee != testRegistrationFee {
		t.Errorf("registration fee: got %d", d.RegistrationFee)
	}
	if d.PatientID != appt.PatientID || d.DoctorID != appt.DoctorID {
		t.Error("patient and doctor should be copied from the appointment")
	}
}

func TestCreate_ClientCannotSetTotals(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusInSession)

	req := createReq(appt.ID)
	req.Drugs = nil
	d, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.DrugsCost != 0 || d.TotalAmount != testRegistrationFee+15000 {
		t.Errorf("totals not derived server-side: drugs=%d total=%d", d.DrugsCost, d.TotalAmount)
	}
}

func TestCreate_ForceCompletesAppointment(t *testing.T) {
	svc, appts := newTestService()

	for _, status := range []appointment.Status{appointment.StatusBooked, appointment.StatusInSession} {
		appt := appts.add(status)
		if _, err := svc.Create(context.Background(), createReq(appt.ID)); err != nil {
			t.Fatalf("create from %s: %v", status, err)
		}
		after, err := appts.GetByID(context.Background(), appt.ID)
		if err != nil {
			t.Fatal(err)
		}
		if after.Status != appointment.StatusCompleted {
			t.Errorf("from %s: expected completed, got %s", status, after.Status)
		}
	}
}

func TestCreate_RejectsCancelledAppointment(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusCancelled)

	if _, err := svc.Create(context.Background(), createReq(appt.ID)); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusInSession)

	if _, err := svc.Create(context.Background(), createReq(appt.ID)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), createReq(appt.ID)); !errors.Is(err, ErrDuplicateDiagnosis) {
		t.Errorf("expected ErrDuplicateDiagnosis, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusInSession)

	tests := []struct {
		name string
		mod  func(*CreateRequest)
		want error
	}{
		{"missing appointment", func(r *CreateRequest) { r.AppointmentID = uuid.Nil }, ErrMissingFields},
		{"blank diagnosis", func(r *CreateRequest) { r.Diagnosis = "  " }, ErrMissingFields},
		{"blank symptoms", func(r *CreateRequest) { r.Symptoms = "  " }, ErrMissingFields},
		{"omitted doctor fee", func(r *CreateRequest) { r.DoctorFee = nil }, ErrMissingFields},
		{"negative fee", func(r *CreateRequest) { fee := int64(-1); r.DoctorFee = &fee }, ErrValidation},
		{"unnamed drug", func(r *CreateRequest) { r.Drugs[0].Name = "" }, ErrMissingFields},
		{"zero quantity", func(r *CreateRequest) { r.Drugs[0].Quantity = 0 }, ErrValidation},
		{"negative price", func(r *CreateRequest) { r.Drugs[0].Price = -100 }, ErrValidation},
		{"unknown appointment", func(r *CreateRequest) { r.AppointmentID = uuid.New() }, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createReq(appt.ID)
			tt.mod(req)
			if _, err := svc.Create(context.Background(), req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreate_BareRequestRejected(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusInSession)

	// Diagnosis text alone is not enough to bill a visit.
	_, err := svc.Create(context.Background(), &CreateRequest{
		AppointmentID: appt.ID,
		Diagnosis:     "flu",
	})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	after, err := appts.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != appointment.StatusInSession {
		t.Errorf("rejected request must not touch the appointment, got %s", after.Status)
	}
}

func TestUpdate_RecomputesTotals(t *testing.T) {
	svc, appts := newTestService()
	appt := appts.add(appointment.StatusInSession)

	d, err := svc.Create(context.Background(), createReq(appt.ID))
	if err != nil {
		t.Fatal(err)
	}

	newFee := int64(20000)
	updated, err := svc.Update(context.Background(), d.ID, &UpdateRequest{
		DoctorFee: &newFee,
		Drugs:     []Drug{{Name: "ibuprofen", Quantity: 5, Price: 300}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DrugsCost != 1500 {
		t.Errorf("drugs cost: got %d, want 1500", updated.DrugsCost)
	}
	if updated.TotalAmount != testRegistrationFee+20000+1500 {
		t.Errorf("total: got %d", updated.TotalAmount)
	}
	// Registration fee is fixed at creation.
	if updated.RegistrationFee != testRegistrationFee {
		t.Errorf("registration fee changed: %d", updated.RegistrationFee)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Update(context.Background(), uuid.New(), &UpdateRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRevenueStats(t *testing.T) {
	svc, appts := newTestService()

	for i := 0; i < 3; i++ {
		appt := appts.add(appointment.StatusInSession)
		if _, err := svc.Create(context.Background(), createReq(appt.ID)); err != nil {
			t.Fatal(err)
		}
	}

	today := time.Now().Format("2006-01-02")
	stats, err := svc.RevenueStats(context.Background(), today, today, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.DiagnosisCount != 3 {
		t.Errorf("count: got %d", stats.DiagnosisCount)
	}
	if stats.TotalRevenue != 3*28500 {
		t.Errorf("revenue: got %d, want %d", stats.TotalRevenue, 3*28500)
	}
	if stats.RegistrationTotal != 3*testRegistrationFee {
		t.Errorf("registration total: got %d", stats.RegistrationTotal)
	}
}

func TestRevenueStats_Validation(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.RevenueStats(context.Background(), "not-a-date", "2026-09-01", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("bad start: expected ErrValidation, got %v", err)
	}
	if _, err := svc.RevenueStats(context.Background(), "2026-09-02", "2026-09-01", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("inverted range: expected ErrValidation, got %v", err)
	}
}
