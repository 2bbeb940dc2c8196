package diagnosis

import (
	"time"

	"github.com/google/uuid"
)

// Drug is one prescription line. Price is the unit price in minor currency
// units; Quantity times Price is the line cost.
type Drug struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

// Diagnosis is the clinical record and bill for one appointment. All money
// fields are integer minor units; totals are computed server-side and never
// taken from the client.
type Diagnosis struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AppointmentID   uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Diagnosis       string    `db:"diagnosis" json:"diagnosis"`
	Symptoms        *string   `db:"symptoms" json:"symptoms,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	Drugs           []Drug    `db:"drugs" json:"drugs"`
	RegistrationFee int64     `db:"registration_fee" json:"registration_fee"`
	DoctorFee       int64     `db:"doctor_fee" json:"doctor_fee"`
	DrugsCost       int64     `db:"drugs_cost" json:"drugs_cost"`
	TotalAmount     int64     `db:"total_amount" json:"total_amount"`
	PrescribedAt    time.Time `db:"prescribed_at" json:"prescribed_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ComputeTotals fills DrugsCost and TotalAmount from the drug list and the
// fee fields.
func (d *Diagnosis) ComputeTotals() {
	d.DrugsCost = 0
	for _, drug := range d.Drugs {
		d.DrugsCost += drug.Price * drug.Quantity
	}
	d.TotalAmount = d.RegistrationFee + d.DoctorFee + d.DrugsCost
}

// RevenueStats aggregates billed amounts over a date range.
type RevenueStats struct {
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	DoctorID          *string `json:"doctor_id,omitempty"`
	DiagnosisCount    int64   `json:"diagnosis_count"`
	RegistrationTotal int64   `json:"registration_total"`
	DoctorFeeTotal    int64   `json:"doctor_fee_total"`
	DrugsTotal        int64   `json:"drugs_total"`
	TotalRevenue      int64   `json:"total_revenue"`
}
