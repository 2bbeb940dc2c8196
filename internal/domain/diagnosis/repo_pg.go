package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const diagCols = `id, appointment_id, patient_id, doctor_id, diagnosis,
	symptoms, notes, drugs, registration_fee, doctor_fee, drugs_cost,
	total_amount, prescribed_at, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	var drugs []byte
	err := row.Scan(
		&d.ID, &d.AppointmentID, &d.PatientID, &d.DoctorID, &d.Diagnosis,
		&d.Symptoms, &d.Notes, &drugs, &d.RegistrationFee, &d.DoctorFee,
		&d.DrugsCost, &d.TotalAmount, &d.PrescribedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan diagnosis: %w", err)
	}
	if err := json.Unmarshal(drugs, &d.Drugs); err != nil {
		return nil, fmt.Errorf("decode drugs: %w", err)
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PgRepository) Create(ctx context.Context, d *Diagnosis) error {
	drugs, err := json.Marshal(d.Drugs)
	if err != nil {
		return fmt.Errorf("encode drugs: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO diagnosis
			(appointment_id, patient_id, doctor_id, diagnosis, symptoms,
			 notes, drugs, registration_fee, doctor_fee, drugs_cost,
			 total_amount, prescribed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING `+diagCols,
		d.AppointmentID, d.PatientID, d.DoctorID, d.Diagnosis, d.Symptoms,
		d.Notes, drugs, d.RegistrationFee, d.DoctorFee, d.DrugsCost,
		d.TotalAmount,
	)
	created, err := scanDiagnosis(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDiagnosis
		}
		return fmt.Errorf("create diagnosis: %w", err)
	}
	*d = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+diagCols+` FROM diagnosis WHERE id = $1`, id)
	return scanDiagnosis(row)
}

func (r *PgRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Diagnosis, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+diagCols+` FROM diagnosis WHERE appointment_id = $1`, appointmentID)
	return scanDiagnosis(row)
}

func (r *PgRepository) Update(ctx context.Context, d *Diagnosis) error {
	drugs, err := json.Marshal(d.Drugs)
	if err != nil {
		return fmt.Errorf("encode drugs: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE diagnosis
		   SET diagnosis = $2, symptoms = $3, notes = $4, drugs = $5,
		       doctor_fee = $6, drugs_cost = $7, total_amount = $8,
		       updated_at = now()
		 WHERE id = $1
		RETURNING `+diagCols,
		d.ID, d.Diagnosis, d.Symptoms, d.Notes, drugs,
		d.DoctorFee, d.DrugsCost, d.TotalAmount,
	)
	updated, err := scanDiagnosis(row)
	if err != nil {
		return err
	}
	*d = *updated
	return nil
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM diagnosis WHERE patient_id = $1`,
		patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count diagnoses: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+diagCols+`
		  FROM diagnosis
		 WHERE patient_id = $1
		 ORDER BY prescribed_at DESC
		 LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *PgRepository) RevenueStats(ctx context.Context, filter StatsFilter) (*RevenueStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(registration_fee), 0),
		       COALESCE(SUM(doctor_fee), 0),
		       COALESCE(SUM(drugs_cost), 0),
		       COALESCE(SUM(total_amount), 0)
		  FROM diagnosis
		 WHERE prescribed_at::date BETWEEN $1::date AND $2::date`
	args := []any{filter.StartDate, filter.EndDate}
	if filter.DoctorID != nil {
		query += ` AND doctor_id = $3`
		args = append(args, *filter.DoctorID)
	}

	stats := &RevenueStats{StartDate: filter.StartDate, EndDate: filter.EndDate}
	if filter.DoctorID != nil {
		id := filter.DoctorID.String()
		stats.DoctorID = &id
	}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.DiagnosisCount, &stats.RegistrationTotal, &stats.DoctorFeeTotal,
		&stats.DrugsTotal, &stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("revenue stats: %w", err)
	}
	return stats, nil
}
