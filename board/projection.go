package board

import (
	"strings"

	"taskboard/domain"
)

// Match reports whether the task matches the free-text query: a
// case-insensitive substring of the title or the description. An empty or
// whitespace-only query matches everything.
func Match(t domain.Task, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// FilterTasks returns the tasks matching query, preserving order. Pure; the
// input is never mutated.
func FilterTasks(tasks []domain.Task, query string) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if Match(t, query) {
			out = append(out, t)
		}
	}
	return out
}

// FilteredByColumn derives the filtered, column-partitioned view of
// canonical state. It is recomputed from scratch on every call, never
// cached, so it can't go stale against either input.
func (s *Store) FilteredByColumn(query string) map[domain.Status][]domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Status][]domain.Task, 3)
	for _, st := range domain.Statuses() {
		out[st] = []domain.Task{}
	}
	for _, t := range s.tasks {
		if Match(t, query) {
			out[t.Status] = append(out[t.Status], t.Clone())
		}
	}
	return out
}
