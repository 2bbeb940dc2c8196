package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionCols = `id, doctor_id, session_date::text, state, pause_reason,
	paused_at, started_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(
		&s.ID, &s.DoctorID, &s.Date, &s.State, &s.PauseReason,
		&s.PausedAt, &s.StartedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrCreate upserts the session row in one statement. The conflict arm is
// a no-op update so the row always comes back, created or not.
func (r *PgRepository) GetOrCreate(ctx context.Context, doctorID uuid.UUID, date string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO queue_session (doctor_id, session_date, state)
		VALUES ($1, $2::date, 'active')
		ON CONFLICT (doctor_id, session_date)
		DO UPDATE SET doctor_id = EXCLUDED.doctor_id
		RETURNING `+sessionCols,
		doctorID, date)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get or create session: %w", err)
	}
	return s, nil
}

func (r *PgRepository) SetState(ctx context.Context, doctorID uuid.UUID, date string, from, to State, pauseReason *string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queue_session
		   SET state = $4,
		       pause_reason = CASE WHEN $4 = 'paused' THEN $5 ELSE NULL END,
		       paused_at    = CASE WHEN $4 = 'paused' THEN now() ELSE NULL END,
		       updated_at   = now()
		 WHERE doctor_id = $1 AND session_date = $2::date AND state = $3
		RETURNING `+sessionCols,
		doctorID, date, from, to, pauseReason)
	s, err := scanSession(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("set session state: %w", err)
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
