package diagnosis

import "errors"

var (
	// ErrNotFound indicates the diagnosis does not exist.
	ErrNotFound = errors.New("diagnosis not found")

	// ErrMissingFields indicates required clinical fields are absent.
	ErrMissingFields = errors.New("required fields missing")

	// ErrValidation indicates malformed input beyond plain absence.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateDiagnosis indicates the appointment already has a
	// diagnosis attached.
	ErrDuplicateDiagnosis = errors.New("appointment already has a diagnosis")
)
