package api

import (
	"context"

	"taskboard/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	InsertTask(ctx context.Context, t domain.Task) error
	ReplaceTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// NotFoundError is implemented by storage errors meaning the addressed task
// id is unknown.
type NotFoundError interface {
	error
	TaskNotFound()
}

// Deduper remembers which task a create idempotency key produced so a
// retried create returns the original task instead of a duplicate.
type Deduper interface {
	// Lookup returns the task id previously recorded for key, if any.
	Lookup(ctx context.Context, key string) (string, bool, error)
	// Remember records key -> taskID for the deduper's retention window.
	Remember(ctx context.Context, key, taskID string) error
}
