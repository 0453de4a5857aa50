package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/domain"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	columnFocusStyle = columnStyle.
				BorderForeground(lipgloss.Color("#5B8DEF"))
	columnTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC"))
	cardStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	cardCursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	cardDragStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	priorityHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	priorityLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	formLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)
)

var columnTitles = map[domain.Status]string{
	domain.StatusPending:    "Pending",
	domain.StatusInProgress: "In Progress",
	domain.StatusCompleted:  "Completed",
}

// View renders the current screen.
func (a *App) View() string {
	switch a.state {
	case stateForm:
		return a.viewForm()
	case stateConfirmDelete:
		return a.viewConfirm()
	default:
		return a.viewBoard()
	}
}

func (a *App) viewBoard() string {
	cols := make([]string, 0, len(a.colOrder))
	for i, status := range a.colOrder {
		cols = append(cols, a.renderColumn(i, status))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	parts := []string{body}
	if a.state == stateFilter || a.query != "" {
		parts = append(parts, "filter: "+a.filter.View())
	}
	if a.notice != "" {
		parts = append(parts, noticeStyle.Render(a.notice)+helpStyle.Render("  (x to dismiss)"))
	}
	parts = append(parts, a.helpLine())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderColumn(idx int, status domain.Status) string {
	tasks := a.cols[status]
	lines := []string{columnTitleStyle.Render(fmt.Sprintf("%s (%d)", columnTitles[status], len(tasks)))}
	dragging := a.controller.ActiveTaskID()
	for row, t := range tasks {
		marker := "  "
		style := cardStyle
		if idx == a.col && row == a.row {
			marker = "> "
			style = cardCursorStyle
		}
		if t.ID == dragging {
			marker = "* "
			style = cardDragStyle
		}
		lines = append(lines, marker+style.Render(t.Title)+" "+renderPriority(t.Priority))
	}
	if len(tasks) == 0 {
		lines = append(lines, cardStyle.Render("  (empty)"))
	}

	width := 28
	if a.width > 0 {
		if w := a.width/len(a.colOrder) - 4; w > 12 {
			width = w
		}
	}
	style := columnStyle
	if idx == a.col {
		style = columnFocusStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func renderPriority(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return priorityHigh.Render("!")
	case domain.PriorityLow:
		return priorityLow.Render("·")
	default:
		return ""
	}
}

func (a *App) helpLine() string {
	if a.controller.ActiveTaskID() != "" {
		return helpStyle.Render("moving: arrows select target · space/enter drop · esc cancel")
	}
	return helpStyle.Render("arrows move · space pick up · n new · e edit · d delete · / filter · r reload · q quit")
}

func (a *App) viewForm() string {
	f := a.form
	title := "New Task"
	if f.mode == formEdit {
		title = "Edit Task"
	}
	labels := [fieldCount]string{"Title", "Description", "Due date", "Assignee", "Attachment"}
	lines := []string{columnTitleStyle.Render(title), ""}
	for i := 0; i < fieldCount; i++ {
		lines = append(lines, formLabelStyle.Render(labels[i])+"  "+f.inputs[i].View())
	}
	lines = append(lines, "", formLabelStyle.Render("Priority")+"  "+string(f.priority)+helpStyle.Render("  (ctrl+p to change)"))
	if len(f.attachments) > 0 {
		lines = append(lines, formLabelStyle.Render("Attached"))
		for _, url := range f.attachments {
			lines = append(lines, "  "+cardStyle.Render(url))
		}
	}
	if f.err != "" {
		lines = append(lines, "", noticeStyle.Render(f.err))
	}
	lines = append(lines, "", helpStyle.Render("tab next field · ctrl+s save · ctrl+x drop last attachment · esc cancel"))
	return columnStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewConfirm() string {
	name := a.confirmID
	if t, ok := a.store.Find(a.confirmID); ok {
		name = t.Title
	}
	lines := []string{
		columnTitleStyle.Render("Delete task?"),
		"",
		cardStyle.Render(name),
		"",
		helpStyle.Render("y delete · n keep"),
	}
	return columnStyle.Render(strings.Join(lines, "\n"))
}
