package storage

// NotFoundError reports an unknown task id. It carries the TaskNotFound
// marker so the api layer can map it to a 404 without importing this
// package's concrete types.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "task " + e.ID + " not found"
}

// TaskNotFound marks the error for the api layer.
func (e *NotFoundError) TaskNotFound() {}
