package board

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// Repository is the slice of the task-service client the store depends on.
type Repository interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, req domain.TaskRequest) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, req domain.TaskRequest) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// LoadState tracks the lifecycle of the most recent Load call.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadInFlight
	LoadSucceeded
	LoadFailed
)

// Store owns the canonical task list for one session. All mutation flows
// through it so the optimistic-move/rollback invariant holds; every other
// component only ever sees copies. Methods are safe for concurrent use: the
// canonical list is mutated under a mutex and network I/O happens outside
// it, so an optimistic apply is visible to readers before the remote write
// completes.
type Store struct {
	repo Repository
	log  *log.Logger

	mu      sync.Mutex
	tasks   []domain.Task
	state   LoadState
	loadGen uint64

	// moveLocks serializes moves per task id so two in-flight moves on the
	// same task cannot interleave their apply and persist phases.
	moveLocks map[string]*sync.Mutex
}

// NewStore creates a Store backed by the given repository.
func NewStore(repo Repository, logger *log.Logger) *Store {
	if repo == nil {
		panic("board.NewStore: repository is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		repo:      repo,
		log:       logger,
		moveLocks: make(map[string]*sync.Mutex),
	}
}

// Load fetches the full task set from the repository, replacing canonical
// state. Each call bumps a generation token; a load whose token is no longer
// current by the time its response arrives is discarded, so a slow fetch can
// never clobber the result of a newer one.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.state = LoadInFlight
	s.mu.Unlock()

	tasks, err := s.repo.ListTasks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		s.log.WithField("generation", gen).Debug("board.load.stale_discarded")
		return nil
	}
	if err != nil {
		s.state = LoadFailed
		s.log.WithField("error", err.Error()).Warn("board.load.failed")
		return err
	}
	s.tasks = tasks
	s.state = LoadSucceeded
	s.log.WithField("tasks", len(tasks)).Debug("board.load.replaced")
	return nil
}

// Create sends a creation payload to the repository and, only on success,
// appends the returned task (server-assigned id authoritative) to canonical
// state. Status defaults to PENDING when the caller leaves it empty.
func (s *Store) Create(ctx context.Context, req domain.TaskRequest) (domain.Task, error) {
	if req.Status == "" {
		req.Status = domain.StatusPending
	}
	if err := req.Validate(); err != nil {
		return domain.Task{}, err
	}
	created, err := s.repo.CreateTask(ctx, req)
	if err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, created)
	s.mu.Unlock()
	return created.Clone(), nil
}

// MoveStatus is the optimistic path. The status change is applied to
// canonical state synchronously via a structural copy, then the full current
// task snapshot is sent as an update (the service requires title and
// description on every update, so no partial patch is possible). On failure
// the store rolls back by resyncing the whole list from the repository and
// returns the original error. Moves on the same task id are serialized.
func (s *Store) MoveStatus(ctx context.Context, id string, status domain.Status) error {
	if !status.Valid() {
		return &domain.ValidationError{Message: "unknown status " + string(status)}
	}
	lock := s.taskLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return &domain.NotFoundError{ID: id}
	}
	if s.tasks[i].Status == status {
		s.mu.Unlock()
		return nil
	}
	moved := s.tasks[i].Clone()
	moved.Status = status
	s.tasks[i] = moved
	req := domain.RequestFromTask(moved)
	s.mu.Unlock()

	updated, err := s.repo.UpdateTask(ctx, id, req)
	if err != nil {
		s.log.WithFields(log.Fields{
			"task":   id,
			"status": string(status),
			"error":  err.Error(),
		}).Warn("board.move.rollback")
		if loadErr := s.Load(ctx); loadErr != nil {
			s.log.WithField("error", loadErr.Error()).Error("board.move.resync_failed")
		}
		return err
	}
	s.adoptServerTask(updated)
	return nil
}

// Update merges the given full-object payload into the addressed task. This
// is the pessimistic path: canonical state only changes on success, when the
// server's returned representation replaces the local one.
func (s *Store) Update(ctx context.Context, id string, req domain.TaskRequest) (domain.Task, error) {
	if err := req.Validate(); err != nil {
		return domain.Task{}, err
	}
	updated, err := s.repo.UpdateTask(ctx, id, req)
	if err != nil {
		return domain.Task{}, err
	}
	s.adoptServerTask(updated)
	return updated.Clone(), nil
}

// Remove deletes the task remotely and, only on success, drops it from
// canonical state. Confirmation is the caller's concern.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	return nil
}

// ByColumn is a pure projection of canonical state partitioned by status.
// All three columns are always present; the returned tasks are copies, so
// consumers must key by id rather than object identity.
func (s *Store) ByColumn() map[domain.Status][]domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Status][]domain.Task, 3)
	for _, st := range domain.Statuses() {
		out[st] = []domain.Task{}
	}
	for _, t := range s.tasks {
		out[t.Status] = append(out[t.Status], t.Clone())
	}
	return out
}

// Tasks returns a copy of the canonical list in repository fetch order.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Find returns a copy of the task with the given id.
func (s *Store) Find(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// State reports the lifecycle of the most recent Load call.
func (s *Store) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// adoptServerTask replaces the canonical entry for the task's id with the
// server's authoritative representation. A task unknown locally (e.g. the
// list was resynced in between) is left alone; the next Load picks it up.
func (s *Store) adoptServerTask(t domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(t.ID); i >= 0 {
		s.tasks[i] = t
	}
}

// index returns the canonical position of id, or -1. Callers hold s.mu.
func (s *Store) index(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) taskLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.moveLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.moveLocks[id] = l
	}
	return l
}
