package queue

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetOrCreate returns the session for (doctorID, date), materializing
	// it in the active state when it does not exist yet.
	GetOrCreate(ctx context.Context, doctorID uuid.UUID, date string) (*Session, error)

	// SetState applies a conditional state change: the session must
	// currently be in state from. Returns ErrInvalidTransition when its
	// state has moved on. pauseReason is stored on pause and cleared on
	// any other target state.
	SetState(ctx context.Context, doctorID uuid.UUID, date string, from, to State, pauseReason *string) (*Session, error)
}
