package queue

import "errors"

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrReasonRequired indicates a pause request without a reason.
	ErrReasonRequired = errors.New("pause reason is required")

	// ErrInvalidTransition indicates a session state change not allowed by
	// the machine, e.g. stopping a paused queue.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrQueuePaused indicates call-next was attempted on a paused queue.
	ErrQueuePaused = errors.New("queue is paused")

	// ErrQueueStopped indicates call-next was attempted on a stopped queue.
	ErrQueueStopped = errors.New("queue is stopped")

	// ErrQueueEmpty indicates call-next found nobody waiting.
	ErrQueueEmpty = errors.New("no appointments waiting")
)
