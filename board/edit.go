package board

import (
	"context"
	"time"

	"taskboard/domain"
)

// Updater is the slice of the store an edit session commits through.
type Updater interface {
	Update(ctx context.Context, id string, req domain.TaskRequest) (domain.Task, error)
}

// EditSession holds a local draft of one task's editable fields. The draft
// is seeded from the task and re-seeded on Reseed while no edit is in
// progress, so a background change (say, a move rollback) is not hidden
// behind a stale draft. The first setter call freezes the draft against
// further reseeding until Commit or Cancel.
//
// An EditSession is driven by a single UI goroutine and is not safe for
// concurrent use.
type EditSession struct {
	updater Updater
	taskID  string
	draft   domain.TaskRequest
	editing bool
}

// NewEditSession opens a session on the given task.
func NewEditSession(u Updater, t domain.Task) *EditSession {
	if u == nil {
		panic("board.NewEditSession: updater is nil")
	}
	return &EditSession{
		updater: u,
		taskID:  t.ID,
		draft:   domain.RequestFromTask(t),
	}
}

// TaskID returns the id of the task under edit.
func (s *EditSession) TaskID() string { return s.taskID }

// Editing reports whether the draft is frozen against reseeding.
func (s *EditSession) Editing() bool { return s.editing }

// Draft returns a detached copy of the current draft.
func (s *EditSession) Draft() domain.TaskRequest {
	d := s.draft
	if d.DueDate != nil {
		due := *d.DueDate
		d.DueDate = &due
	}
	if d.Attachments != nil {
		d.Attachments = append([]string(nil), d.Attachments...)
	}
	return d
}

// Reseed refreshes the draft from the canonical task. Ignored while an edit
// is in progress or when the task is not the one this session was opened on.
func (s *EditSession) Reseed(t domain.Task) {
	if s.editing || t.ID != s.taskID {
		return
	}
	s.draft = domain.RequestFromTask(t)
}

// SetTitle updates the draft title and freezes the draft.
func (s *EditSession) SetTitle(v string) {
	s.editing = true
	s.draft.Title = v
}

// SetDescription updates the draft description and freezes the draft.
func (s *EditSession) SetDescription(v string) {
	s.editing = true
	s.draft.Description = v
}

// SetPriority updates the draft priority and freezes the draft.
func (s *EditSession) SetPriority(p domain.Priority) {
	s.editing = true
	s.draft.Priority = p
}

// SetDueDate updates the draft due date and freezes the draft. nil clears
// the deadline.
func (s *EditSession) SetDueDate(t *time.Time) {
	s.editing = true
	if t == nil {
		s.draft.DueDate = nil
		return
	}
	due := *t
	s.draft.DueDate = &due
}

// SetAssignee updates the draft assignee and freezes the draft. An empty id
// unassigns the task.
func (s *EditSession) SetAssignee(userID string) {
	s.editing = true
	s.draft.AssignedUserID = userID
}

// AddAttachment appends a reference URL to the draft's attachment list.
// A pure local edit until commit.
func (s *EditSession) AddAttachment(url string) {
	s.editing = true
	s.draft.Attachments = append(s.draft.Attachments, url)
}

// RemoveAttachment drops the attachment at i from the draft. Out-of-range
// indices are ignored.
func (s *EditSession) RemoveAttachment(i int) {
	s.editing = true
	if i < 0 || i >= len(s.draft.Attachments) {
		return
	}
	s.draft.Attachments = append(s.draft.Attachments[:i], s.draft.Attachments[i+1:]...)
}

// Commit sends the full draft, every editable field whether changed or not,
// through the store's update path and reseeds the draft from the server's
// returned representation. On failure the draft stays frozen so the user
// can fix and retry.
func (s *EditSession) Commit(ctx context.Context) (domain.Task, error) {
	updated, err := s.updater.Update(ctx, s.taskID, s.Draft())
	if err != nil {
		return domain.Task{}, err
	}
	s.editing = false
	s.draft = domain.RequestFromTask(updated)
	return updated, nil
}

// Cancel discards the in-progress edit with no store interaction. The draft
// unfreezes; the next Reseed restores the canonical values.
func (s *EditSession) Cancel() {
	s.editing = false
}
