package domain

import "fmt"

// NetworkError reports a transport-level failure talking to the task
// service: connection refused, timeout, or an unexpected 5xx.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError reports a payload the service rejected, or that a local
// pre-check would reject for the same reason.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports an operation that referenced a task id the service
// no longer knows about.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// ConflictError is reserved for optimistic-concurrency rejection. The
// current service never returns 409; the type names the gap so callers can
// already branch on it.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %s was modified concurrently", e.ID)
}
