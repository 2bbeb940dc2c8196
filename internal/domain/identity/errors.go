package identity

import "errors"

var (
	// ErrPatientNotFound indicates the patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrDoctorNotFound indicates the doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
)
