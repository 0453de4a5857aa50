package board

import (
	"context"
	"sync"

	"taskboard/domain"
)

// Mover is the slice of the store the drag controller needs.
type Mover interface {
	MoveStatus(ctx context.Context, id string, status domain.Status) error
	Find(id string) (domain.Task, bool)
}

// Controller tracks an in-progress drag gesture. It is a plain state
// machine with two stored states, idle and dragging; the drop itself is a
// single synchronous handler, not stored state. Any rendering layer can
// drive it through DragStart/DragEnd and read ActiveTaskID for a preview.
type Controller struct {
	mu     sync.Mutex
	active string
	mover  Mover
}

// NewController creates a Controller that moves tasks through m.
func NewController(m Mover) *Controller {
	if m == nil {
		panic("board.NewController: mover is nil")
	}
	return &Controller{mover: m}
}

// DragStart records the task being dragged. No other side effects.
func (c *Controller) DragStart(id string) {
	c.mu.Lock()
	c.active = id
	c.mu.Unlock()
}

// ActiveTaskID returns the id of the task currently being dragged, or ""
// when no drag is in progress.
func (c *Controller) ActiveTaskID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Cancel abandons an in-progress drag without touching the store. The
// rendering layer calls this when the gesture is released over nothing or
// the view goes away.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.active = ""
	c.mu.Unlock()
}

// DragEnd finishes the gesture. over identifies the drop target: a column
// (status value) or another task, in which case the move joins that task's
// column. An empty or unresolvable target is a no-op, as is dropping a task
// onto its own column: that gesture is within-column reordering, which has
// no durable order field and intentionally does not persist. The controller
// returns to idle on every path.
func (c *Controller) DragEnd(ctx context.Context, over string) error {
	c.mu.Lock()
	active := c.active
	c.active = ""
	c.mu.Unlock()

	if active == "" || over == "" {
		return nil
	}
	target, ok := c.resolveTarget(over)
	if !ok {
		return nil
	}
	task, ok := c.mover.Find(active)
	if !ok {
		return nil
	}
	if task.Status == target {
		return nil
	}
	return c.mover.MoveStatus(ctx, active, target)
}

// resolveTarget maps a drop target id to a column: a literal status wins,
// otherwise a known task id resolves to that task's current column.
func (c *Controller) resolveTarget(over string) (domain.Status, bool) {
	if st, ok := domain.ParseStatus(over); ok {
		return st, true
	}
	if t, ok := c.mover.Find(over); ok {
		return t.Status, true
	}
	return "", false
}
