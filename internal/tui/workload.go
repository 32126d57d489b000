package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

type workloadModel struct {
	store     *store.Store
	analytics *analytics.Service
	width     int
	height    int

	users      []store.User
	userCursor int
	policy     int // index into labor.Policies
	offset     int // windows away from the current one, negative is earlier

	from, to time.Time
	dist     *labor.UserDistribution
	capacity float64 // hours per day
	err      error

	chart barchart.Model
}

func newWorkloadModel(s *store.Store, an *analytics.Service) workloadModel {
	m := workloadModel{
		store:     s,
		analytics: an,
		chart:     barchart.New(60, 12),
	}
	for i, p := range labor.Policies {
		if p == an.DefaultPolicy() {
			m.policy = i
		}
	}
	return m
}

func (m *workloadModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m workloadModel) currentPolicy() labor.Policy {
	return labor.Policies[m.policy%len(labor.Policies)]
}

type workloadDataMsg struct {
	users    []store.User
	from, to time.Time
	dist     *labor.UserDistribution
	capacity float64
	err      error
}

// window shifts the default window by whole window lengths. A one-week
// window is aligned to the stored week_start day.
func (m workloadModel) window() (time.Time, time.Time, error) {
	from, to, err := m.analytics.Window(nil, nil)
	if err != nil {
		return from, to, err
	}
	days := labor.WindowDays(from, to)
	if days == 7 {
		ws, _ := m.store.GetSetting("week_start")
		from = weekStart(from, ws)
		to = from.AddDate(0, 0, days-1)
	}
	shift := m.offset * days
	return from.AddDate(0, 0, shift), to.AddDate(0, 0, shift), nil
}

// weekStart returns the most recent Monday on or before day, or Sunday when
// start is "sunday".
func weekStart(day time.Time, start string) time.Time {
	first := time.Monday
	if start == "sunday" {
		first = time.Sunday
	}
	back := (int(day.Weekday()) - int(first) + 7) % 7
	return day.AddDate(0, 0, -back)
}

func (m workloadModel) refresh() tea.Cmd {
	cursor := m.userCursor
	policy := m.currentPolicy()
	return func() tea.Msg {
		users, err := m.store.ListUsers()
		if err != nil {
			return workloadDataMsg{err: err}
		}
		from, to, err := m.window()
		if err != nil {
			return workloadDataMsg{err: err}
		}
		msg := workloadDataMsg{
			users:    users,
			from:     from,
			to:       to,
			capacity: m.store.SettingFloat("daily_capacity", 8),
		}
		if len(users) == 0 {
			return msg
		}
		if cursor >= len(users) {
			cursor = len(users) - 1
		}
		msg.dist, msg.err = m.analytics.UserDistribution(users[cursor].ID, policy, from, to)
		return msg
	}
}

func (m workloadModel) update(msg tea.Msg) (workloadModel, tea.Cmd) {
	switch msg := msg.(type) {
	case workloadDataMsg:
		m.err = msg.err
		m.users = msg.users
		m.from, m.to = msg.from, msg.to
		m.dist = msg.dist
		m.capacity = msg.capacity
		if m.userCursor >= len(m.users) {
			m.userCursor = max(0, len(m.users)-1)
		}
		m.buildChart()
		return m, nil

	case taskCreatedMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset--
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, keys.Up):
			if m.userCursor > 0 {
				m.userCursor--
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Down):
			if m.userCursor < len(m.users)-1 {
				m.userCursor++
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Policy):
			m.policy = (m.policy + 1) % len(labor.Policies)
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m *workloadModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 34 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)
	if m.dist == nil {
		m.chart.Draw()
		return
	}

	var bars []barchart.BarData
	for _, b := range m.dist.DailyDistribution {
		// Remaining planned work stacks on top of what is already done.
		// A day with more actual than planned labor shows the overrun.
		pending, pendingStyle := b.PlannedLabor, plannedBarStyle
		if pending < 0 {
			pending, pendingStyle = -pending, overBarStyle
		}
		bars = append(bars, barchart.BarData{
			Label: b.Date.Format("02"),
			Values: []barchart.BarValue{
				{Name: "Actual", Value: max(b.ActualLabor, 0), Style: actualBarStyle},
				{Name: "Planned", Value: pending, Style: pendingStyle},
			},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

// orderedTasks lists each task in the window once, in the order the policy
// would assign them.
func orderedTasks(d *labor.UserDistribution, p labor.Policy) []labor.Task {
	if d == nil {
		return nil
	}
	seen := make(map[int64]bool)
	var out []labor.Task
	for _, b := range d.DailyDistribution {
		for _, t := range b.Tasks {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	ordered, err := analytics.Prioritize(out, p)
	if err != nil {
		return out
	}
	return ordered
}

func (m workloadModel) view() string {
	w := m.width - 4

	var tabs []string
	for i, p := range labor.Policies {
		if i == m.policy {
			tabs = append(tabs, activeTabStyle.Render(string(p)))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(string(p)))
		}
	}
	policyTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	who := "no users"
	if m.userCursor < len(m.users) {
		who = m.users[m.userCursor].FullName
	}
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", formatDay(m.from), m.to.Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Workload"), "  ", highlightStyle.Render(who), "  ", policyTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: window  ↑/↓: user  p: policy  e: export")

	if m.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", errorStyle.Render("Error: "+m.err.Error()), "", nav,
		))
	}
	if len(m.users) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  No users yet"), "", nav,
		))
	}

	legend := "  " + actualBarStyle.Render("■") + " actual  " +
		plannedBarStyle.Render("■") + " planned  " +
		overBarStyle.Render("■") + " over plan"

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.chart.View(), "", legend, "", m.renderTotals(), "", m.renderOrder(w), "", nav,
		),
	)
}

func (m workloadModel) renderTotals() string {
	if m.dist == nil {
		return ""
	}
	var planned, actual float64
	var over int
	busiest := labor.DailyBucket{}
	for _, b := range m.dist.DailyDistribution {
		planned += b.PlannedLabor
		actual += b.ActualLabor
		if b.PlannedLabor > busiest.PlannedLabor {
			busiest = b
		}
		if m.capacity > 0 && b.PlannedLabor > m.capacity {
			over++
		}
	}
	line := fmt.Sprintf("  Planned %s  Actual %s  Remaining %s",
		highlightStyle.Render(formatHours(planned)),
		highlightStyle.Render(formatHours(actual)),
		highlightStyle.Render(formatHours(planned-actual)),
	)
	if !busiest.Date.IsZero() {
		line += mutedStyle.Render(fmt.Sprintf("  busiest %s (%s)", formatDay(busiest.Date), formatHours(busiest.PlannedLabor)))
	}
	if over > 0 {
		line += warningStyle.Render(fmt.Sprintf("  %d days over %s", over, formatHours(m.capacity)))
	}
	return line
}

func (m workloadModel) renderOrder(w int) string {
	tasks := orderedTasks(m.dist, m.currentPolicy())
	if len(tasks) == 0 {
		return mutedStyle.Render("  No tasks in this window")
	}

	limit := max(3, m.height-28)
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-3s %-30s %-8s %4s %-12s %s", "#", "Task", "Priority", "Size", "Due", "Status"))}
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 72))))
	for i, t := range tasks {
		if i == limit {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(tasks)-limit)))
			break
		}
		rows = append(rows, fmt.Sprintf("  %-3d %-30s ", i+1, truncate(t.Description, 30))+
			lipgloss.NewStyle().Width(9).Render(priorityStyleFor(string(t.Priority)))+
			fmt.Sprintf("%4d %-12s %s", t.WorkSize, labor.FormatDate(t.CompletionDate), mutedStyle.Render(t.Status)))
	}
	return strings.Join(rows, "\n")
}
