package appointment

import "errors"

var (
	// ErrNotFound indicates the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition indicates a status change not allowed by the
	// transition table, e.g. completing a booked appointment directly.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSessionOccupied indicates another appointment for the same doctor
	// and date is already in session.
	ErrSessionOccupied = errors.New("another appointment is already in session")
)
