package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskboard/domain"
)

type updateCall struct {
	id  string
	req domain.TaskRequest
}

// mockRepo implements Repository with scriptable results.
type mockRepo struct {
	mu sync.Mutex

	listFn    func(ctx context.Context) ([]domain.Task, error)
	listTasks []domain.Task
	listErr   error
	listCalls int

	createErr error
	created   []domain.TaskRequest

	updateErr   error
	updateEcho  func(id string, req domain.TaskRequest) domain.Task
	updates     []updateCall
	updateGate  chan struct{} // when non-nil, UpdateTask blocks until closed
	updateBegan chan struct{} // signaled once per UpdateTask entry when non-nil

	deleteErr error
	deleted   []string
}

func (m *mockRepo) ListTasks(ctx context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	m.listCalls++
	fn := m.listFn
	tasks := make([]domain.Task, len(m.listTasks))
	for i, t := range m.listTasks {
		tasks[i] = t.Clone()
	}
	err := m.listErr
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return tasks, err
}

func (m *mockRepo) CreateTask(ctx context.Context, req domain.TaskRequest) (domain.Task, error) {
	m.mu.Lock()
	m.created = append(m.created, req)
	err := m.createErr
	m.mu.Unlock()
	if err != nil {
		return domain.Task{}, err
	}
	now := time.Now().UTC()
	return domain.Task{
		ID:          "srv-1",
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Attachments: req.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (m *mockRepo) UpdateTask(ctx context.Context, id string, req domain.TaskRequest) (domain.Task, error) {
	m.mu.Lock()
	m.updates = append(m.updates, updateCall{id: id, req: req})
	err := m.updateErr
	echo := m.updateEcho
	gate := m.updateGate
	began := m.updateBegan
	m.mu.Unlock()
	if began != nil {
		began <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.Task{}, err
	}
	if echo != nil {
		return echo(id, req), nil
	}
	return domain.Task{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Attachments: req.Attachments,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

func (m *mockRepo) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

func (m *mockRepo) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

func (m *mockRepo) lastUpdate() (updateCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.updates) == 0 {
		return updateCall{}, false
	}
	return m.updates[len(m.updates)-1], true
}

func taskFixture(id, title string, status domain.Status) domain.Task {
	return domain.Task{
		ID:          id,
		Title:       title,
		Description: "description of " + title,
		Status:      status,
		Priority:    domain.PriorityMedium,
		Attachments: []string{},
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLoadReplacesCanonicalState(t *testing.T) {
	repo := &mockRepo{listTasks: []domain.Task{
		taskFixture("a", "alpha", domain.StatusPending),
		taskFixture("b", "beta", domain.StatusInProgress),
	}}
	store := NewStore(repo, nil)

	if store.State() != LoadIdle {
		t.Fatalf("fresh store must be idle, got %d", store.State())
	}
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.State() != LoadSucceeded {
		t.Fatalf("expected succeeded state, got %d", store.State())
	}
	tasks := store.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "a" || tasks[1].ID != "b" {
		t.Fatalf("unexpected canonical list: %+v", tasks)
	}
}

func TestLoadFailureSetsFailedState(t *testing.T) {
	repo := &mockRepo{listErr: &domain.NetworkError{Op: "GET /tasks", Err: errors.New("refused")}}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if store.State() != LoadFailed {
		t.Fatalf("expected failed state, got %d", store.State())
	}
}

func TestLoadDiscardsStaleCompletion(t *testing.T) {
	repo := &mockRepo{}
	store := NewStore(repo, nil)

	stale := []domain.Task{taskFixture("old", "stale snapshot", domain.StatusPending)}
	fresh := []domain.Task{taskFixture("new", "fresh snapshot", domain.StatusCompleted)}

	first := true
	repo.listFn = func(ctx context.Context) ([]domain.Task, error) {
		if first {
			first = false
			// A second load starts and completes while this one is still in
			// flight; the slow result below must then be thrown away.
			if err := store.Load(ctx); err != nil {
				t.Errorf("nested load: %v", err)
			}
			return stale, nil
		}
		return fresh, nil
	}

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("outer load: %v", err)
	}
	tasks := store.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "new" {
		t.Fatalf("stale load result was not discarded: %+v", tasks)
	}
}

func TestCreateAppendsOnSuccess(t *testing.T) {
	repo := &mockRepo{}
	store := NewStore(repo, nil)
	created, err := store.Create(context.Background(), domain.TaskRequest{
		Title:       "new task",
		Description: "do the thing",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "srv-1" {
		t.Fatalf("server-assigned id must be authoritative, got %q", created.ID)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("status must default to PENDING, got %s", created.Status)
	}
	if got, ok := store.Find("srv-1"); !ok || got.Title != "new task" {
		t.Fatalf("created task missing from canonical state: %+v ok=%v", got, ok)
	}
}

func TestCreateFailureNotAppliedLocally(t *testing.T) {
	repo := &mockRepo{createErr: &domain.ValidationError{Message: "rejected"}}
	store := NewStore(repo, nil)
	_, err := store.Create(context.Background(), domain.TaskRequest{Title: "new task", Description: "d"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.Tasks()) != 0 {
		t.Fatal("failed create must not touch canonical state")
	}
}

func TestCreateInvalidDraftNeverReachesRepository(t *testing.T) {
	repo := &mockRepo{}
	store := NewStore(repo, nil)
	if _, err := store.Create(context.Background(), domain.TaskRequest{Title: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(repo.created) != 0 {
		t.Fatal("invalid draft must be rejected before the network")
	}
}

func TestMoveStatusAppliesOptimisticallyBeforePersist(t *testing.T) {
	repo := &mockRepo{
		listTasks:   []domain.Task{taskFixture("a", "alpha", domain.StatusPending)},
		updateGate:  make(chan struct{}),
		updateBegan: make(chan struct{}, 1),
	}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- store.MoveStatus(context.Background(), "a", domain.StatusInProgress)
	}()

	<-repo.updateBegan
	if got, _ := store.Find("a"); got.Status != domain.StatusInProgress {
		t.Fatalf("optimistic status not visible while update in flight: %s", got.Status)
	}

	close(repo.updateGate)
	if err := <-done; err != nil {
		t.Fatalf("move: %v", err)
	}
	if got, _ := store.Find("a"); got.Status != domain.StatusInProgress {
		t.Fatalf("final status wrong: %s", got.Status)
	}
}

func TestMoveStatusSendsFullObject(t *testing.T) {
	task := taskFixture("a", "alpha", domain.StatusPending)
	task.Priority = domain.PriorityHigh
	task.Attachments = []string{"https://files.example/x.pdf"}
	repo := &mockRepo{listTasks: []domain.Task{task}}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.MoveStatus(context.Background(), "a", domain.StatusCompleted); err != nil {
		t.Fatalf("move: %v", err)
	}
	call, ok := repo.lastUpdate()
	if !ok {
		t.Fatal("expected an update call")
	}
	if call.req.Title != "alpha" || call.req.Description == "" {
		t.Fatalf("move must send the full object, got %+v", call.req)
	}
	if call.req.Status != domain.StatusCompleted {
		t.Fatalf("payload status must be the new one, got %s", call.req.Status)
	}
	if call.req.Priority != domain.PriorityHigh || len(call.req.Attachments) != 1 {
		t.Fatalf("unrelated fields must be preserved, got %+v", call.req)
	}
}

func TestMoveStatusRollsBackByResyncOnFailure(t *testing.T) {
	repo := &mockRepo{
		listTasks: []domain.Task{taskFixture("a", "alpha", domain.StatusPending)},
	}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	repo.mu.Lock()
	repo.updateErr = &domain.NetworkError{Op: "PUT /tasks/:id", Err: errors.New("connection reset")}
	repo.mu.Unlock()

	err := store.MoveStatus(context.Background(), "a", domain.StatusInProgress)
	var nerr *domain.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	// The repository never saw the move, so the resync restores PENDING.
	if got, _ := store.Find("a"); got.Status != domain.StatusPending {
		t.Fatalf("expected rollback to PENDING after resync, got %s", got.Status)
	}
	repo.mu.Lock()
	calls := repo.listCalls
	repo.mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected resync fetch after failed move, got %d list calls", calls)
	}
}

func TestMoveStatusSameColumnIsNoop(t *testing.T) {
	repo := &mockRepo{listTasks: []domain.Task{taskFixture("a", "alpha", domain.StatusPending)}}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.MoveStatus(context.Background(), "a", domain.StatusPending); err != nil {
		t.Fatalf("same-column move must succeed silently, got %v", err)
	}
	if repo.updateCount() != 0 {
		t.Fatal("same-column move must not call the repository")
	}
}

func TestMoveStatusUnknownTask(t *testing.T) {
	store := NewStore(&mockRepo{}, nil)
	err := store.MoveStatus(context.Background(), "ghost", domain.StatusCompleted)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMoveStatusSerializesPerTask(t *testing.T) {
	repo := &mockRepo{
		listTasks:   []domain.Task{taskFixture("a", "alpha", domain.StatusPending)},
		updateGate:  make(chan struct{}),
		updateBegan: make(chan struct{}, 2),
	}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	first := make(chan error, 1)
	go func() {
		first <- store.MoveStatus(context.Background(), "a", domain.StatusInProgress)
	}()
	<-repo.updateBegan

	second := make(chan error, 1)
	go func() {
		second <- store.MoveStatus(context.Background(), "a", domain.StatusCompleted)
	}()

	// The second move must be blocked behind the first, not in flight.
	select {
	case <-repo.updateBegan:
		t.Fatal("second move started its update while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.updateGate)
	if err := <-first; err != nil {
		t.Fatalf("first move: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second move: %v", err)
	}
	if got, _ := store.Find("a"); got.Status != domain.StatusCompleted {
		t.Fatalf("expected last move to win, got %s", got.Status)
	}
}

func TestUpdateIsPessimistic(t *testing.T) {
	repo := &mockRepo{listTasks: []domain.Task{taskFixture("a", "alpha", domain.StatusPending)}}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	repo.mu.Lock()
	repo.updateErr = &domain.NetworkError{Op: "PUT /tasks/:id", Err: errors.New("timeout")}
	repo.mu.Unlock()

	_, err := store.Update(context.Background(), "a", domain.TaskRequest{
		Title:       "renamed",
		Description: "changed",
	})
	if err == nil {
		t.Fatal("expected update error")
	}
	if got, _ := store.Find("a"); got.Title != "alpha" {
		t.Fatalf("failed update must leave canonical state untouched, got %q", got.Title)
	}
}

func TestUpdateAdoptsServerRepresentation(t *testing.T) {
	repo := &mockRepo{
		listTasks: []domain.Task{taskFixture("a", "alpha", domain.StatusPending)},
		updateEcho: func(id string, req domain.TaskRequest) domain.Task {
			return domain.Task{
				ID:               id,
				Title:            req.Title,
				Description:      req.Description,
				Status:           req.Status,
				Priority:         req.Priority,
				AssignedUserID:   req.AssignedUserID,
				AssignedUserName: "dana", // server-derived field
				UpdatedAt:        time.Now().UTC(),
			}
		},
	}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	updated, err := store.Update(context.Background(), "a", domain.TaskRequest{
		Title:          "alpha",
		Description:    "new description",
		Status:         domain.StatusPending,
		AssignedUserID: "u1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AssignedUserName != "dana" {
		t.Fatal("server-derived fields must come back to the caller")
	}
	if got, _ := store.Find("a"); got.Description != "new description" || got.AssignedUserName != "dana" {
		t.Fatalf("canonical state must adopt the server representation, got %+v", got)
	}
}

func TestRemoveOnlyAppliesOnSuccess(t *testing.T) {
	repo := &mockRepo{listTasks: []domain.Task{taskFixture("a", "alpha", domain.StatusPending)}}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	repo.mu.Lock()
	repo.deleteErr = &domain.NotFoundError{ID: "a"}
	repo.mu.Unlock()
	if err := store.Remove(context.Background(), "a"); err == nil {
		t.Fatal("expected delete error")
	}
	if _, ok := store.Find("a"); !ok {
		t.Fatal("failed delete must leave canonical state untouched")
	}

	repo.mu.Lock()
	repo.deleteErr = nil
	repo.mu.Unlock()
	if err := store.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.Find("a"); ok {
		t.Fatal("removed task still present")
	}
}

func TestByColumnPartitionsWithoutOverlapOrLoss(t *testing.T) {
	repo := &mockRepo{listTasks: []domain.Task{
		taskFixture("a", "alpha", domain.StatusPending),
		taskFixture("b", "beta", domain.StatusInProgress),
		taskFixture("c", "gamma", domain.StatusCompleted),
		taskFixture("d", "delta", domain.StatusPending),
	}}
	store := NewStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	cols := store.ByColumn()
	if len(cols) != 3 {
		t.Fatalf("expected exactly three columns, got %d", len(cols))
	}
	seen := map[string]int{}
	total := 0
	for st, tasks := range cols {
		for _, task := range tasks {
			if task.Status != st {
				t.Fatalf("task %s in wrong column %s", task.ID, st)
			}
			seen[task.ID]++
			total++
		}
	}
	if total != 4 {
		t.Fatalf("columns lost tasks: %d of 4", total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("task %s appears in %d columns", id, n)
		}
	}
	if got := cols[domain.StatusPending]; len(got) != 2 || got[0].ID != "a" || got[1].ID != "d" {
		t.Fatalf("column order must follow fetch order, got %+v", got)
	}
}
