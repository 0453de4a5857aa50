package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/domain"
)

const dueDateLayout = "2006-01-02"

type formMode int

const (
	formCreate formMode = iota
	formEdit
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
	fieldAssignee
	fieldAttachment
	fieldCount
)

// taskForm is the create/edit input panel. It owns the text inputs and the
// cycled priority; the surrounding App decides where the values go on
// submit.
type taskForm struct {
	mode        formMode
	focus       int
	inputs      [fieldCount]textinput.Model
	priority    domain.Priority
	attachments []string
	err         string
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func newCreateForm() *taskForm {
	f := &taskForm{
		mode:     formCreate,
		priority: domain.PriorityMedium,
	}
	f.inputs[fieldTitle] = newInput("title", domain.TitleMaxLen)
	f.inputs[fieldDescription] = newInput("description", 500)
	f.inputs[fieldDueDate] = newInput("due date "+dueDateLayout, 10)
	f.inputs[fieldAssignee] = newInput("assignee id", 64)
	f.inputs[fieldAttachment] = newInput("attachment url, enter to add", 200)
	f.inputs[fieldTitle].Focus()
	return f
}

func newEditForm(req domain.TaskRequest) *taskForm {
	f := newCreateForm()
	f.mode = formEdit
	f.fill(req)
	return f
}

// fill loads draft values into the inputs. Used on open and whenever an
// unfrozen draft is reseeded underneath the form.
func (f *taskForm) fill(req domain.TaskRequest) {
	f.inputs[fieldTitle].SetValue(req.Title)
	f.inputs[fieldDescription].SetValue(req.Description)
	if req.DueDate != nil {
		f.inputs[fieldDueDate].SetValue(req.DueDate.Format(dueDateLayout))
	} else {
		f.inputs[fieldDueDate].SetValue("")
	}
	f.inputs[fieldAssignee].SetValue(req.AssignedUserID)
	if req.Priority != "" {
		f.priority = req.Priority
	}
	f.attachments = append([]string(nil), req.Attachments...)
}

func (f *taskForm) focusField(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

func (f *taskForm) next() tea.Cmd {
	return f.focusField((f.focus + 1) % fieldCount)
}

func (f *taskForm) prev() tea.Cmd {
	return f.focusField((f.focus + fieldCount - 1) % fieldCount)
}

func (f *taskForm) cyclePriority() {
	switch f.priority {
	case domain.PriorityLow:
		f.priority = domain.PriorityMedium
	case domain.PriorityMedium:
		f.priority = domain.PriorityHigh
	default:
		f.priority = domain.PriorityLow
	}
}

// dueDate parses the due date field. ok is false when the field holds text
// that is not a date.
func (f *taskForm) dueDate() (*time.Time, bool) {
	v := f.inputs[fieldDueDate].Value()
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(dueDateLayout, v)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// request assembles the full payload from the form's current values.
func (f *taskForm) request() (domain.TaskRequest, bool) {
	due, ok := f.dueDate()
	if !ok {
		f.err = "due date must look like " + dueDateLayout
		return domain.TaskRequest{}, false
	}
	req := domain.TaskRequest{
		Title:          f.inputs[fieldTitle].Value(),
		Description:    f.inputs[fieldDescription].Value(),
		Priority:       f.priority,
		DueDate:        due,
		AssignedUserID: f.inputs[fieldAssignee].Value(),
		Attachments:    append([]string(nil), f.attachments...),
	}
	if verr := req.Validate(); verr != nil {
		f.err = verr.Error()
		return domain.TaskRequest{}, false
	}
	f.err = ""
	return req, true
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := a.form
	switch msg.String() {
	case "esc":
		if a.session != nil {
			a.session.Cancel()
		}
		a.closeForm()
		a.refresh()
		return a, nil

	case "tab", "down":
		return a, f.next()
	case "shift+tab", "up":
		return a, f.prev()

	case "ctrl+p":
		f.cyclePriority()
		if a.session != nil {
			a.session.SetPriority(f.priority)
		}
		return a, nil

	case "ctrl+x":
		if n := len(f.attachments); n > 0 {
			f.attachments = f.attachments[:n-1]
			if a.session != nil {
				a.session.RemoveAttachment(n - 1)
			}
		}
		return a, nil

	case "enter":
		if f.focus == fieldAttachment {
			if url := f.inputs[fieldAttachment].Value(); url != "" {
				f.attachments = append(f.attachments, url)
				if a.session != nil {
					a.session.AddAttachment(url)
				}
				f.inputs[fieldAttachment].SetValue("")
			}
			return a, nil
		}
		return a, f.next()

	case "ctrl+s":
		return a, a.submitForm()
	}

	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if after := f.inputs[f.focus].Value(); after != before {
		a.syncSessionField(f.focus, after)
	}
	return a, cmd
}

// syncSessionField mirrors a keystroke in an edit form into the session so
// the draft freezes on the first real change.
func (a *App) syncSessionField(field int, value string) {
	if a.session == nil {
		return
	}
	switch field {
	case fieldTitle:
		a.session.SetTitle(value)
	case fieldDescription:
		a.session.SetDescription(value)
	case fieldDueDate:
		if due, ok := a.form.dueDate(); ok {
			a.session.SetDueDate(due)
		}
	case fieldAssignee:
		a.session.SetAssignee(value)
	}
}

func (a *App) submitForm() tea.Cmd {
	req, ok := a.form.request()
	if !ok {
		return nil
	}
	if a.form.mode == formCreate {
		return a.createCmd(req)
	}
	// The session carries the authoritative draft for edits; the form
	// validation above already vetted the same values.
	return a.commitCmd(a.session)
}
