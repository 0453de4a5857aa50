// Package tui is the terminal rendering layer for the board engine. It
// follows the bubbletea Elm loop: the App model holds all UI state, Update
// reacts to messages, View renders to a string. Board mutations never happen
// here directly; every gesture is translated into a call on the board
// package and the result comes back as a message.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/board"
	"taskboard/domain"
)

// appState is the screen the user is on.
type appState int

const (
	stateBoard         appState = iota
	stateFilter                 // filter input focused
	stateForm                   // create or edit form open
	stateConfirmDelete          // y/n prompt before a destructive delete
)

type tasksReloadedMsg struct{ err error }
type moveDoneMsg struct{ err error }
type createDoneMsg struct{ err error }
type updateDoneMsg struct{ err error }
type deleteDoneMsg struct{ err error }

// App holds all TUI state.
type App struct {
	store      *board.Store
	controller *board.Controller
	session    *board.EditSession // open edit session, nil otherwise

	state     appState
	cols      map[domain.Status][]domain.Task
	colOrder  []domain.Status
	col, row  int
	filter    textinput.Model
	query     string
	form      *taskForm
	confirmID string

	// notice is the dismissable error banner naming the action that failed.
	notice string

	width  int
	height int
}

// New creates the App around an already-constructed store and controller.
func New(store *board.Store, controller *board.Controller) *App {
	filter := textinput.New()
	filter.Placeholder = "filter tasks"
	filter.CharLimit = 120
	return &App{
		store:      store,
		controller: controller,
		colOrder:   domain.Statuses(),
		cols:       map[domain.Status][]domain.Task{},
		filter:     filter,
	}
}

// Init kicks off the first load.
func (a *App) Init() tea.Cmd {
	return a.reloadCmd()
}

func (a *App) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return tasksReloadedMsg{err: a.store.Load(context.Background())}
	}
}

func (a *App) dropCmd(target string) tea.Cmd {
	return func() tea.Msg {
		return moveDoneMsg{err: a.controller.DragEnd(context.Background(), target)}
	}
}

func (a *App) createCmd(req domain.TaskRequest) tea.Cmd {
	return func() tea.Msg {
		_, err := a.store.Create(context.Background(), req)
		return createDoneMsg{err: err}
	}
}

func (a *App) commitCmd(session *board.EditSession) tea.Cmd {
	return func() tea.Msg {
		_, err := session.Commit(context.Background())
		return updateDoneMsg{err: err}
	}
}

func (a *App) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{err: a.store.Remove(context.Background(), id)}
	}
}

// refresh re-derives the rendered columns from canonical state and clamps
// the cursor.
func (a *App) refresh() {
	a.cols = a.store.FilteredByColumn(a.query)
	if a.col >= len(a.colOrder) {
		a.col = len(a.colOrder) - 1
	}
	if n := len(a.currentColumn()); a.row >= n {
		a.row = n - 1
	}
	if a.row < 0 {
		a.row = 0
	}
}

func (a *App) currentColumn() []domain.Task {
	return a.cols[a.colOrder[a.col]]
}

// cursorTask returns the task under the cursor, if the column has one.
func (a *App) cursorTask() (domain.Task, bool) {
	col := a.currentColumn()
	if a.row < 0 || a.row >= len(col) {
		return domain.Task{}, false
	}
	return col[a.row], true
}

// dropTarget is what a release of the drag gesture lands on: the task under
// the cursor when there is one, otherwise the column itself.
func (a *App) dropTarget() string {
	if t, ok := a.cursorTask(); ok {
		return t.ID
	}
	return string(a.colOrder[a.col])
}

// Update is the single message handler for the whole UI.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tasksReloadedMsg:
		a.refresh()
		a.reseedSession()
		if msg.err != nil {
			a.notice = "Loading tasks failed: " + msg.err.Error()
		}
		return a, nil

	case moveDoneMsg:
		// A failed move has already been rolled back by resync inside the
		// store; the refresh below makes the revert visible.
		a.refresh()
		if msg.err != nil {
			a.notice = "Moving task failed: " + msg.err.Error()
		}
		return a, nil

	case createDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.notice = "Creating task failed: " + msg.err.Error()
			return a, nil
		}
		a.closeForm()
		return a, nil

	case updateDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.notice = "Updating task failed: " + msg.err.Error()
			return a, nil
		}
		a.closeForm()
		return a, nil

	case deleteDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.notice = "Deleting task failed: " + msg.err.Error()
		}
		return a, nil

	case tea.KeyMsg:
		switch a.state {
		case stateFilter:
			return a.updateFilter(msg)
		case stateForm:
			return a.updateForm(msg)
		case stateConfirmDelete:
			return a.updateConfirm(msg)
		default:
			return a.updateBoard(msg)
		}
	}
	return a, nil
}

func (a *App) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		a.controller.Cancel()
		return a, tea.Quit

	case "left", "h":
		if a.col > 0 {
			a.col--
			a.clampRow()
		}
	case "right", "l":
		if a.col < len(a.colOrder)-1 {
			a.col++
			a.clampRow()
		}
	case "up", "k":
		if a.row > 0 {
			a.row--
		}
	case "down", "j":
		if a.row < len(a.currentColumn())-1 {
			a.row++
		}

	case " ", "enter":
		if a.controller.ActiveTaskID() == "" {
			if t, ok := a.cursorTask(); ok {
				a.controller.DragStart(t.ID)
			}
			return a, nil
		}
		return a, a.dropCmd(a.dropTarget())

	case "esc":
		if a.controller.ActiveTaskID() != "" {
			a.controller.Cancel()
			return a, nil
		}
		a.notice = ""

	case "x":
		a.notice = ""

	case "/":
		a.state = stateFilter
		a.filter.SetValue(a.query)
		a.filter.Focus()
		return a, textinput.Blink

	case "n":
		a.form = newCreateForm()
		a.state = stateForm
		return a, textinput.Blink

	case "e":
		if t, ok := a.cursorTask(); ok {
			a.session = board.NewEditSession(a.store, t)
			a.form = newEditForm(a.session.Draft())
			a.state = stateForm
			return a, textinput.Blink
		}

	case "d":
		if t, ok := a.cursorTask(); ok {
			a.confirmID = t.ID
			a.state = stateConfirmDelete
		}

	case "r":
		return a, a.reloadCmd()
	}
	return a, nil
}

func (a *App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.filter.Blur()
		a.filter.SetValue("")
		a.query = ""
		a.state = stateBoard
		a.refresh()
		return a, nil
	case "enter":
		a.filter.Blur()
		a.state = stateBoard
		return a, nil
	}
	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	// The projection is re-derived on every keystroke, never cached.
	a.query = a.filter.Value()
	a.refresh()
	return a, cmd
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		id := a.confirmID
		a.confirmID = ""
		a.state = stateBoard
		return a, a.deleteCmd(id)
	case "n", "esc":
		a.confirmID = ""
		a.state = stateBoard
	}
	return a, nil
}

// reseedSession pushes fresh canonical state into an open edit session.
// The session itself refuses the reseed while an edit is in progress, and
// the form only re-fills from an unfrozen draft.
func (a *App) reseedSession() {
	if a.session == nil {
		return
	}
	if t, ok := a.store.Find(a.session.TaskID()); ok {
		a.session.Reseed(t)
		if !a.session.Editing() && a.form != nil {
			a.form.fill(a.session.Draft())
		}
	}
}

func (a *App) closeForm() {
	a.form = nil
	a.session = nil
	a.state = stateBoard
}

func (a *App) clampRow() {
	if n := len(a.currentColumn()); a.row >= n {
		a.row = n - 1
	}
	if a.row < 0 {
		a.row = 0
	}
}
