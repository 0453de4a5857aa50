package storage

import (
	"context"
	"fmt"
	"sync"

	"taskboard/domain"
)

// Memory keeps tasks in process memory, preserving insertion order. It backs
// local runs where no Redis is configured; state is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]domain.Task
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tasks: make(map[string]domain.Task)}
}

// ListTasks returns all tasks in insertion order.
func (m *Memory) ListTasks(ctx context.Context) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Task, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tasks[id].Clone())
	}
	return out, nil
}

// GetTask returns the task with the given id.
func (m *Memory) GetTask(ctx context.Context, id string) (domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, &NotFoundError{ID: id}
	}
	return t.Clone(), nil
}

// InsertTask stores a new task. Ids are assigned by the handler, so a
// collision means a bug upstream.
func (m *Memory) InsertTask(ctx context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return fmt.Errorf("duplicate task id %s", t.ID)
	}
	m.tasks[t.ID] = t.Clone()
	m.order = append(m.order, t.ID)
	return nil
}

// ReplaceTask overwrites an existing task in place, keeping its position.
func (m *Memory) ReplaceTask(ctx context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return &NotFoundError{ID: t.ID}
	}
	m.tasks[t.ID] = t.Clone()
	return nil
}

// DeleteTask removes the task with the given id.
func (m *Memory) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(m.tasks, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
