package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

// dueHorizonDays is how far ahead the overview looks for due tasks.
const dueHorizonDays = 3

type overviewModel struct {
	store     *store.Store
	analytics *analytics.Service
	width     int
	height    int

	overview *analytics.Overview
	due      []store.Task
	err      error
}

func newOverviewModel(s *store.Store, an *analytics.Service) overviewModel {
	return overviewModel{store: s, analytics: an}
}

func (o overviewModel) Init() tea.Cmd {
	return o.loadData()
}

func (o *overviewModel) setSize(w, h int) {
	o.width = w
	o.height = h
}

type overviewDataMsg struct {
	overview *analytics.Overview
	due      []store.Task
	err      error
}

func (o overviewModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ov, err := o.analytics.Overview(nil, 8)
		if err != nil {
			return overviewDataMsg{err: err}
		}
		due, err := o.store.OpenTasksDueBy(today().AddDate(0, 0, dueHorizonDays))
		return overviewDataMsg{overview: ov, due: due, err: err}
	}
}

func (o overviewModel) update(msg tea.Msg) (overviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewDataMsg:
		o.err = msg.err
		if msg.err == nil {
			o.overview = msg.overview
			o.due = msg.due
		}
	case taskCreatedMsg:
		return o, o.loadData()
	}
	return o, nil
}

func (o overviewModel) view() string {
	if o.width < 20 {
		return "Terminal too small"
	}
	w := o.width - 4

	if o.err != nil {
		return panelStyle.Width(w).Render(errorStyle.Render("Error: " + o.err.Error()))
	}
	if o.overview == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		o.renderCounts(w),
		o.renderDue(w),
		o.renderRecent(w),
	)
}

func (o overviewModel) renderCounts(w int) string {
	title := titleStyle.Render("Tasks")
	total := highlightStyle.Render(fmt.Sprintf("%d total, %d open", o.overview.Total, o.overview.Open))
	rows := []string{fmt.Sprintf("%s  %s", title, total)}

	if o.overview.Total == 0 {
		rows = append(rows, mutedStyle.Render("No tasks yet. Press 2 to add one."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for _, c := range o.overview.ByStatus {
		bar := strings.Repeat("■", min(c.Count, 40))
		style := successStyle
		if store.IsOpen(c.Status) {
			style = highlightStyle
		}
		rows = append(rows, fmt.Sprintf("  %-12s %4d  %s", c.Status, c.Count, style.Render(bar)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (o overviewModel) renderDue(w int) string {
	title := titleStyle.Render(fmt.Sprintf("Due in %d days", dueHorizonDays))
	if len(o.due) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing due"),
		))
	}

	now := today()
	rows := []string{title}
	for _, t := range o.due {
		marker := warningStyle.Render("●")
		if t.CompletionDate.Before(now) {
			marker = errorStyle.Render("!")
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-32s %s",
			marker,
			labor.FormatDate(t.CompletionDate),
			truncate(t.Description, 32),
			mutedStyle.Render(assigneeNames(t.Assignees)),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (o overviewModel) renderRecent(w int) string {
	title := titleStyle.Render("Recently Updated")
	if len(o.overview.Recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No activity yet"),
		))
	}

	rows := []string{title}
	for _, t := range o.overview.Recent {
		rows = append(rows, fmt.Sprintf("  %s  %-32s %-8s %s",
			t.UpdatedAt.Local().Format("Jan 02 15:04"),
			truncate(t.Description, 32),
			priorityStyleFor(t.Priority),
			statusStyleFor(t.Status),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func assigneeNames(as []store.Assignee) string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.UserName
	}
	return strings.Join(names, ", ")
}
