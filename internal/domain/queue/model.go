package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicq/clinicq/internal/domain/appointment"
)

// State is the lifecycle of a doctor's daily queue. A session that has never
// been touched reads as active: the queue is open by default and the row is
// materialized lazily on first use.
type State string

const (
	StateStopped State = "stopped"
	StateActive  State = "active"
	StatePaused  State = "paused"
)

func (s State) Valid() bool {
	switch s {
	case StateStopped, StateActive, StatePaused:
		return true
	}
	return false
}

// sessionTransitions allows stopped -> active, active <-> paused and
// active -> stopped. A paused queue must be resumed before it can be
// stopped, so the pause reason is always resolved explicitly.
var sessionTransitions = map[State][]State{
	StateStopped: {StateActive},
	StateActive:  {StatePaused, StateStopped},
	StatePaused:  {StateActive},
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is one doctor's queue state for one calendar day.
type Session struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Date        string     `db:"session_date" json:"date"`
	State       State      `db:"state" json:"state"`
	PauseReason *string    `db:"pause_reason" json:"pause_reason,omitempty"`
	PausedAt    *time.Time `db:"paused_at" json:"paused_at,omitempty"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Status is the dashboard view of a doctor's day: the session state plus
// what the appointment table derives from it.
type Status struct {
	DoctorID            uuid.UUID                  `json:"doctor_id"`
	Date                string                     `json:"date"`
	State               State                      `json:"state"`
	PauseReason         *string                    `json:"pause_reason,omitempty"`
	PausedAt            *time.Time                 `json:"paused_at,omitempty"`
	CurrentAppointments []*appointment.Appointment `json:"current_appointments"`
	Waiting             []*appointment.Appointment `json:"waiting"`
	WaitingCount        int                        `json:"waiting_count"`
	CompletedCount      int                        `json:"completed_count"`
}
