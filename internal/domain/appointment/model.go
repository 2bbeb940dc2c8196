package appointment

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Status is the canonical appointment lifecycle state. The legacy "called"
// vocabulary used by one dashboard maps to StatusInSession.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusInSession Status = "in_session"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the allowed status transition table. Cancelled is reachable
// from any non-terminal state; completed only from in_session.
var transitions = map[Status][]Status{
	StatusBooked:    {StatusInSession, StatusCancelled},
	StatusInSession: {StatusCompleted, StatusCancelled},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusInSession, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority replaces the source system's free-text urgent/vip note markers
// with a structured field set at creation time.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
	PriorityVIP    Priority = "vip"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent, PriorityVIP:
		return true
	}
	return false
}

// rank orders priorities for the waiting list: urgent first, then vip,
// then normal.
func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityVIP:
		return 1
	default:
		return 2
	}
}

// Source records how the appointment entered the system.
type Source string

const (
	SourceBooked Source = "booked"
	SourceWalkIn Source = "walk_in"
)

// Appointment maps to the appointment table. Date is a clinic-local
// calendar day (YYYY-MM-DD) and Time a half-hour-aligned slot (HH:MM).
// QueueNumber is unique within (DoctorID, Date) and defines FIFO order.
type Appointment struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date               string    `db:"visit_date" json:"date"`
	Time               string    `db:"visit_time" json:"time"`
	Status             Status    `db:"status" json:"status"`
	QueueNumber        int       `db:"queue_number" json:"queue_number"`
	Priority           Priority  `db:"priority" json:"priority"`
	Source             Source    `db:"source" json:"source"`
	Notes              *string   `db:"notes" json:"notes,omitempty"`
	CancellationReason *string   `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	RescheduledFrom    *string   `db:"rescheduled_from" json:"rescheduled_from,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// ValidSlot reports whether s is a half-hour-aligned HH:MM slot.
func ValidSlot(s string) bool {
	t, err := time.Parse(slotLayout, s)
	if err != nil {
		return false
	}
	return t.Minute() == 0 || t.Minute() == 30
}

// OrderWaiting returns the patient-facing waiting list for a set of
// appointments belonging to one (doctor, date) group: booked entries only,
// urgent ahead of vip ahead of normal, FIFO by queue number within a rank.
// The input is not modified.
func OrderWaiting(appts []*Appointment) []*Appointment {
	waiting := make([]*Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status == StatusBooked {
			waiting = append(waiting, a)
		}
	}

	sort.SliceStable(waiting, func(i, j int) bool {
		ri, rj := waiting[i].Priority.rank(), waiting[j].Priority.rank()
		if ri != rj {
			return ri < rj
		}
		return waiting[i].QueueNumber < waiting[j].QueueNumber
	})

	return waiting
}

// NextInQueue returns the booked appointment with the lowest queue number,
// or nil when nobody is waiting. Call-next follows arrival order; the
// priority rules apply only through the explicit reorder action, which
// rewrites queue numbers.
func NextInQueue(appts []*Appointment) *Appointment {
	var next *Appointment
	for _, a := range appts {
		if a.Status != StatusBooked {
			continue
		}
		if next == nil || a.QueueNumber < next.QueueNumber {
			next = a
		}
	}
	return next
}
