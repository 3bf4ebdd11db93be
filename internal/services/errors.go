package services

import "errors"

var (
	// ErrTaskNotFound is returned when an operation references a task
	// that does not exist. Never fatal, never retried.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidTransition is returned when an event is not legal for
	// the task's current status. The engine fails closed instead of
	// silently mutating state.
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrAccessDenied    = errors.New("access denied")
	ErrUnknownCategory = errors.New("unknown category")
)
