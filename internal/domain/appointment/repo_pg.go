package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const apptCols = `id, patient_id, doctor_id, visit_date::text, visit_time::text,
	status, queue_number, priority, source, notes, cancellation_reason,
	rescheduled_from, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.Status, &a.QueueNumber, &a.Priority, &a.Source, &a.Notes,
		&a.CancellationReason, &a.RescheduledFrom, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts the appointment with the next free queue number for the
// doctor's day. Under read committed two concurrent creates can read the
// same maximum; the unique index on (doctor_id, visit_date, queue_number)
// rejects the loser, which retries once against the new maximum.
func (r *PgRepository) Create(ctx context.Context, a *Appointment) error {
	created, err := r.insert(ctx, a)
	if err != nil && isUniqueViolation(err) {
		created, err = r.insert(ctx, a)
	}
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	*a = *created
	return nil
}

func (r *PgRepository) insert(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointment
			(patient_id, doctor_id, visit_date, visit_time, status,
			 queue_number, priority, source, notes)
		VALUES ($1, $2, $3::date, $4::time, $5,
			(SELECT COALESCE(MAX(queue_number), 0) + 1
			   FROM appointment
			  WHERE doctor_id = $2 AND visit_date = $3::date),
			$6, $7, $8)
		RETURNING `+apptCols,
		a.PatientID, a.DoctorID, a.Date, a.Time, a.Status,
		a.Priority, a.Source, a.Notes,
	)
	return scanAppointment(row)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id)
	return scanAppointment(row)
}

// Update rewrites the mutable fields. Moving to another day takes the next
// queue number there in the same statement, so the unique index on
// (doctor_id, visit_date, queue_number) is never crossed mid-move.
func (r *PgRepository) Update(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment a
		   SET visit_time = $3::time, priority = $4,
		       notes = $5, rescheduled_from = $6, updated_at = now(),
		       queue_number = CASE WHEN a.visit_date = $2::date THEN a.queue_number
			ELSE (SELECT COALESCE(MAX(b.queue_number), 0) + 1
				FROM appointment b
			       WHERE b.doctor_id = a.doctor_id
				 AND b.visit_date = $2::date
				 AND b.id <> a.id) END,
		       visit_date = $2::date
		 WHERE a.id = $1
		RETURNING `+apptCols,
		a.ID, a.Date, a.Time, a.Priority, a.Notes, a.RescheduledFrom,
	)
	updated, err := scanAppointment(row)
	if err != nil {
		return err
	}
	*a = *updated
	return nil
}

func (r *PgRepository) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptCols+`
		  FROM appointment
		 WHERE doctor_id = $1 AND visit_date = $2::date
		 ORDER BY queue_number`,
		doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`,
		patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+apptCols+`
		  FROM appointment
		 WHERE patient_id = $1
		 ORDER BY visit_date DESC, visit_time DESC
		 LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patient appointments: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

// SetStatus moves the appointment from one status to another in a single
// conditional UPDATE. A miss is disambiguated with a follow-up read: row
// gone means ErrNotFound, row present means its status already changed.
func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to Status, cancellationReason *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment
		   SET status = $3,
		       cancellation_reason = COALESCE($4, cancellation_reason),
		       updated_at = now()
		 WHERE id = $1 AND status = $2
		RETURNING `+apptCols,
		id, from, to, cancellationReason,
	)
	a, err := scanAppointment(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// BeginSession moves a booked appointment to in_session only when no other
// appointment for the same doctor and date is in session. The guard and the
// write are one statement, so two racing calls cannot both succeed.
func (r *PgRepository) BeginSession(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment a
		   SET status = 'in_session', updated_at = now()
		 WHERE a.id = $1 AND a.status = 'booked'
		   AND NOT EXISTS (
			SELECT 1 FROM appointment b
			 WHERE b.doctor_id = a.doctor_id
			   AND b.visit_date = a.visit_date
			   AND b.status = 'in_session'
		   )
		RETURNING `+apptCols,
		id,
	)
	a, err := scanAppointment(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status != StatusBooked {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, StatusInSession)
	}
	return nil, ErrSessionOccupied
}

// ReassignQueueNumbers rewrites queue numbers for a doctor's day. With an
// explicit order, ordered[i] receives number i+1 and unlisted waiting
// entries keep their relative order after the listed ones. With a nil order,
// numbers are compacted by current queue order. Runs in one transaction; a
// negative offset pass keeps the unique index satisfied mid-rewrite.
func (r *PgRepository) ReassignQueueNumbers(ctx context.Context, doctorID uuid.UUID, date string, ordered []uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+apptCols+`
		  FROM appointment
		 WHERE doctor_id = $1 AND visit_date = $2::date
		 ORDER BY queue_number
		 FOR UPDATE`,
		doctorID, date)
	if err != nil {
		return fmt.Errorf("lock day: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return err
	}

	final := renumber(appts, ordered)

	// Park every row on a negative number first so no intermediate state
	// collides with the unique (doctor_id, visit_date, queue_number) index.
	for id, n := range final {
		if _, err := tx.Exec(ctx,
			`UPDATE appointment SET queue_number = $2 WHERE id = $1`,
			id, -n); err != nil {
			return fmt.Errorf("park queue number: %w", err)
		}
	}
	for id, n := range final {
		if _, err := tx.Exec(ctx,
			`UPDATE appointment SET queue_number = $2, updated_at = now() WHERE id = $1`,
			id, n); err != nil {
			return fmt.Errorf("assign queue number: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// renumber computes the final queue number per appointment id. Explicitly
// ordered ids come first in the given order; everything else follows in
// current queue order.
func renumber(appts []*Appointment, ordered []uuid.UUID) map[uuid.UUID]int {
	listed := make(map[uuid.UUID]bool, len(ordered))
	byID := make(map[uuid.UUID]*Appointment, len(appts))
	for _, a := range appts {
		byID[a.ID] = a
	}

	final := make(map[uuid.UUID]int, len(appts))
	n := 0
	for _, id := range ordered {
		if _, ok := byID[id]; !ok || listed[id] {
			continue
		}
		listed[id] = true
		n++
		final[id] = n
	}
	for _, a := range appts {
		if listed[a.ID] {
			continue
		}
		n++
		final[a.ID] = n
	}
	return final
}
