package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientCols = `id, name, phone, email, date_of_birth::text, address, created_at, updated_at`
const doctorCols = `id, name, specialty, phone, email, consult_fee, active, created_at, updated_at`

type PgPatientRepository struct {
	pool *pgxpool.Pool
}

func NewPgPatientRepository(pool *pgxpool.Pool) *PgPatientRepository {
	return &PgPatientRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.DateOfBirth,
		&p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

func (r *PgPatientRepository) Create(ctx context.Context, p *Patient) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patient (name, phone, email, date_of_birth, address)
		VALUES ($1, $2, $3, $4::date, $5)
		RETURNING `+patientCols,
		p.Name, p.Phone, p.Email, p.DateOfBirth, p.Address)
	created, err := scanPatient(row)
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	*p = *created
	return nil
}

func (r *PgPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgPatientRepository) Update(ctx context.Context, p *Patient) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE patient
		   SET name = $2, phone = $3, email = $4, date_of_birth = $5::date,
		       address = $6, updated_at = now()
		 WHERE id = $1
		RETURNING `+patientCols,
		p.ID, p.Name, p.Phone, p.Email, p.DateOfBirth, p.Address)
	updated, err := scanPatient(row)
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}

func (r *PgPatientRepository) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where := ``
	args := []any{}
	if search != "" {
		where = `WHERE name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%'`
		args = append(args, search)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+patientCols+` FROM patient %s ORDER BY name LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

type PgDoctorRepository struct {
	pool *pgxpool.Pool
}

func NewPgDoctorRepository(pool *pgxpool.Pool) *PgDoctorRepository {
	return &PgDoctorRepository{pool: pool}
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Phone, &d.Email,
		&d.ConsultFee, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	return &d, nil
}

func (r *PgDoctorRepository) Create(ctx context.Context, d *Doctor) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor (name, specialty, phone, email, consult_fee, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+doctorCols,
		d.Name, d.Specialty, d.Phone, d.Email, d.ConsultFee, d.Active)
	created, err := scanDoctor(row)
	if err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	*d = *created
	return nil
}

func (r *PgDoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgDoctorRepository) Update(ctx context.Context, d *Doctor) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor
		   SET name = $2, specialty = $3, phone = $4, email = $5,
		       consult_fee = $6, active = $7, updated_at = now()
		 WHERE id = $1
		RETURNING `+doctorCols,
		d.ID, d.Name, d.Specialty, d.Phone, d.Email, d.ConsultFee, d.Active)
	updated, err := scanDoctor(row)
	if err != nil {
		return err
	}
	*d = *updated
	return nil
}

func (r *PgDoctorRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	where := ``
	if activeOnly {
		where = `WHERE active`
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doctor `+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+doctorCols+` FROM doctor `+where+` ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}
