package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

type tasksModel struct {
	store  *store.Store
	width  int
	height int

	tasks       []store.Task
	users       []store.User
	logs        []store.TaskLog
	cursor      int
	viewingLogs bool

	formActive bool
	form       *huh.Form
	fields     *taskFields
}

// taskFields backs the new-task form. Held by pointer so the values survive
// model copies.
type taskFields struct {
	description string
	priority    string
	start       string
	end         string
	planned     string
	workSize    string
	assignee    int64
}

func newTasksModel(s *store.Store) tasksModel {
	return tasksModel{store: s, fields: &taskFields{}}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	tasks []store.Task
	users []store.User
	err   error
}

type taskLogsMsg struct {
	logs []store.TaskLog
}

func (m tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.store.ListTasks(store.TaskFilter{})
		if err != nil {
			return tasksDataMsg{err: err}
		}
		users, err := m.store.ListUsers()
		return tasksDataMsg{tasks: tasks, users: users, err: err}
	}
}

func (m tasksModel) refreshLogs() tea.Cmd {
	if m.cursor >= len(m.tasks) {
		return nil
	}
	id := m.tasks[m.cursor].ID
	return func() tea.Msg {
		logs, _ := m.store.ListTaskLogs(id)
		return taskLogsMsg{logs: logs}
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		if msg.err != nil {
			return m, func() tea.Msg { return errStatus("Load error: %v", msg.err) }
		}
		m.tasks = msg.tasks
		m.users = msg.users
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case taskLogsMsg:
		m.logs = msg.logs
		return m, nil

	case tea.KeyMsg:
		if m.viewingLogs {
			if key.Matches(msg, keys.Back) {
				m.viewingLogs = false
			}
			return m, nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.tasks) > 0 {
			m.viewingLogs = true
			m.logs = nil
			return m, m.refreshLogs()
		}
	case key.Matches(msg, keys.New):
		return m.showNewTaskForm()
	case key.Matches(msg, keys.Status):
		if len(m.tasks) > 0 {
			t := m.tasks[m.cursor]
			next := nextStatus(t.Status)
			if err := m.store.SetTaskStatus(t.ID, next, nil); err != nil {
				return m, func() tea.Msg { return errStatus("Status error: %v", err) }
			}
			return m, tea.Batch(m.refresh(), func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Task %d is now %s", t.ID, next)}
			})
		}
	case key.Matches(msg, keys.Delete):
		if len(m.tasks) > 0 {
			t := m.tasks[m.cursor]
			if err := m.store.DeleteTask(t.ID); err != nil {
				return m, func() tea.Msg { return errStatus("Delete error: %v", err) }
			}
			return m, m.refresh()
		}
	}
	return m, nil
}

// nextStatus cycles through the workflow, wrapping back to the start.
func nextStatus(s string) string {
	for i, v := range store.Statuses {
		if v == s {
			return store.Statuses[(i+1)%len(store.Statuses)]
		}
	}
	return store.StatusNotStarted
}

func (m tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	now := today()
	*m.fields = taskFields{
		priority: string(labor.PriorityMedium),
		start:    labor.FormatDate(now),
		end:      labor.FormatDate(now.AddDate(0, 0, 6)),
		planned:  "8",
		workSize: "1",
	}

	prioOptions := make([]huh.Option[string], len(store.Priorities))
	for i, p := range store.Priorities {
		prioOptions[i] = huh.NewOption(p, p)
	}
	userOptions := []huh.Option[int64]{huh.NewOption("Nobody", int64(0))}
	for _, u := range m.users {
		userOptions = append(userOptions, huh.NewOption(u.FullName, u.ID))
	}

	f := m.fields
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Description").Value(&f.description).Validate(requireText),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(&f.priority),
			huh.NewSelect[int64]().Title("Assignee").Options(userOptions...).Value(&f.assignee),
		),
		huh.NewGroup(
			huh.NewInput().Title("Start date (YYYY-MM-DD)").Value(&f.start).Validate(validateDate),
			huh.NewInput().Title("Completion date (YYYY-MM-DD)").Value(&f.end).Validate(validateDate),
			huh.NewInput().Title("Planned labor (hours)").Value(&f.planned).Validate(validateHours),
			huh.NewInput().Title("Work size").Value(&f.workSize).Validate(validateSize),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		in, err := m.fields.input()
		if err != nil {
			return m, func() tea.Msg { return errStatus("Invalid task: %v", err) }
		}
		task, err := m.store.CreateTask(in)
		if err != nil {
			return m, func() tea.Msg { return errStatus("Create error: %v", err) }
		}
		return m, tea.Batch(m.refresh(), func() tea.Msg { return taskCreatedMsg{task: task} })
	}

	return m, cmd
}

// input converts the form values to a task. The single assignee, if any,
// carries the whole planned labor.
func (f taskFields) input() (store.TaskInput, error) {
	if err := requireText(f.description); err != nil {
		return store.TaskInput{}, err
	}
	start, err := time.Parse("2006-01-02", strings.TrimSpace(f.start))
	if err != nil {
		return store.TaskInput{}, fmt.Errorf("start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(f.end))
	if err != nil {
		return store.TaskInput{}, fmt.Errorf("completion date: %w", err)
	}
	if end.Before(start) {
		return store.TaskInput{}, errors.New("completion date is before start date")
	}
	planned, err := strconv.ParseFloat(strings.TrimSpace(f.planned), 64)
	if err != nil || planned < 0 {
		return store.TaskInput{}, fmt.Errorf("planned labor %q is not a non-negative number", f.planned)
	}
	size, err := strconv.Atoi(strings.TrimSpace(f.workSize))
	if err != nil || size < 1 {
		return store.TaskInput{}, fmt.Errorf("work size %q is not a positive integer", f.workSize)
	}

	in := store.TaskInput{
		Description:    strings.TrimSpace(f.description),
		Priority:       f.priority,
		Status:         store.StatusNotStarted,
		StartDate:      start,
		CompletionDate: end,
		PlannedLabor:   planned,
		WorkSize:       size,
	}
	if f.assignee != 0 {
		in.Assignees = []store.AssigneeInput{{UserID: f.assignee, PlannedLabor: planned}}
	}
	return in, nil
}

func requireText(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateHours(s string) error {
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil || v < 0 {
		return errors.New("enter hours, e.g. 6.5")
	}
	return nil
}

func validateSize(s string) error {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || v < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func (m tasksModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}
	if m.viewingLogs && m.cursor < len(m.tasks) {
		return m.renderLogs(w)
	}
	return m.renderList(w)
}

func (m tasksModel) renderList(w int) string {
	title := titleStyle.Render("Tasks")
	if len(m.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to create one."),
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-4s %-28s %-8s %-12s %-23s %8s",
		"ID", "Description", "Priority", "Status", "Dates", "Labor")))

	// Keep the cursor on screen.
	visible := max(1, m.height-8)
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}
	last := min(len(m.tasks), first+visible)

	for i := first; i < last; i++ {
		t := m.tasks[i]
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dates := labor.FormatDate(t.StartDate) + ".." + t.CompletionDate.Format("01-02")
		hours := fmt.Sprintf("%s/%s", formatHours(t.ActualLabor), formatHours(t.PlannedLabor))
		row := style.Render(fmt.Sprintf("%s%-4d %-28s ", cursor, t.ID, truncate(t.Description, 28))) +
			lipgloss.NewStyle().Width(9).Render(priorityStyleFor(t.Priority)) +
			lipgloss.NewStyle().Width(13).Render(statusStyleFor(t.Status)) +
			style.Render(fmt.Sprintf("%-23s %8s", dates, hours))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  s: next status  d: delete  enter: history"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m tasksModel) renderLogs(w int) string {
	t := m.tasks[m.cursor]
	rows := []string{
		titleStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Description)),
		mutedStyle.Render(fmt.Sprintf("%s  %s  %s..%s", t.Priority, t.Status,
			labor.FormatDate(t.StartDate), labor.FormatDate(t.CompletionDate))),
		"",
	}

	if len(t.Assignees) > 0 {
		rows = append(rows, titleStyle.Render("Assignees"))
		for _, a := range t.Assignees {
			rows = append(rows, fmt.Sprintf("  %-24s %s planned  %s actual",
				a.UserName, formatHours(a.PlannedLabor), formatHours(a.ActualLabor)))
		}
		rows = append(rows, "")
	}

	rows = append(rows, titleStyle.Render("History"))
	if len(m.logs) == 0 {
		rows = append(rows, mutedStyle.Render("  No history"))
	}
	for _, l := range m.logs {
		rows = append(rows, fmt.Sprintf("  %s  %s",
			mutedStyle.Render(l.CreatedAt.Local().Format("2006-01-02 15:04")), l.Description))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
