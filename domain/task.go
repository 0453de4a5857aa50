package domain

import (
	"strings"
	"time"
)

// Status is the board column a task belongs to. The three values partition
// the full task set; there is no fourth column and no overlap.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Statuses returns the board columns in render order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// ParseStatus maps a raw string onto a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), true
	}
	return "", false
}

// Valid reports whether the status is one of the three board columns.
func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Priority of a task. Defaults to PriorityMedium when absent.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority maps a raw string onto a Priority.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), true
	}
	return "", false
}

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	_, ok := ParsePriority(string(p))
	return ok
}

// Task is a single board item as represented by the task service. The ID is
// assigned by the service on creation and immutable afterwards; DueDate is
// nil when the task has no deadline and serializes as JSON null, never as an
// omitted field.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           Status     `json:"status"`
	Priority         Priority   `json:"priority"`
	DueDate          *time.Time `json:"dueDate"`
	AssignedUserID   string     `json:"assignedUserId,omitempty"`
	AssignedUserName string     `json:"assignedUserName,omitempty"`
	Attachments      []string   `json:"attachments"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Clone returns a structural copy that can be mutated without touching the
// original's pointer or slice fields.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Attachments != nil {
		c.Attachments = append([]string(nil), t.Attachments...)
	}
	return c
}

// Title length bounds enforced by the task service.
const (
	TitleMinLen = 3
	TitleMaxLen = 100
)

// TaskRequest is the payload for create and update calls. The service
// requires title and description on every request, so updates carry the
// whole object rather than a partial patch.
type TaskRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         Status     `json:"status,omitempty"`
	Priority       Priority   `json:"priority,omitempty"`
	DueDate        *time.Time `json:"dueDate"`
	AssignedUserID string     `json:"assignedUserId,omitempty"`
	Attachments    []string   `json:"attachments"`
}

// Validate checks the request against the service's payload rules. Status
/// and priority are deliberately not checked here: the service ignores
// unknown values instead of rejecting them.
func (r TaskRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return &ValidationError{Message: "title is required"}
	}
	if len(title) < TitleMinLen || len(title) > TitleMaxLen {
		return &ValidationError{Message: "title must be between 3 and 100 characters"}
	}
	if strings.TrimSpace(r.Description) == "" {
		return &ValidationError{Message: "description is required"}
	}
	return nil
}

// RequestFromTask seeds a full-object payload from an existing task,
// detaching pointer and slice fields from the source.
func RequestFromTask(t Task) TaskRequest {
	c := t.Clone()
	return TaskRequest{
		Title:          c.Title,
		Description:    c.Description,
		Status:         c.Status,
		Priority:       c.Priority,
		DueDate:        c.DueDate,
		AssignedUserID: c.AssignedUserID,
		Attachments:    c.Attachments,
	}
}
