package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

var (
	colorPrimary   = lipgloss.Color("#5B8DEF")
	colorSecondary = lipgloss.Color("#43B5A0")
	colorAccent    = lipgloss.Color("#E8615A")
	colorMuted     = lipgloss.Color("#6B6F80")
	colorSuccess   = lipgloss.Color("#4CAF7A")
	colorWarning   = lipgloss.Color("#E0A43B")
	colorError     = lipgloss.Color("#D9534F")
	colorFg        = lipgloss.Color("#D4D8E8")
	colorSubtle    = lipgloss.Color("#3E4458")
	colorHighlight = lipgloss.Color("#9A7FE0")
)

var (
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 2)

	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorFg)
)

// Workload chart series. Pending labor below zero is drawn as overrun.
var (
	plannedBarStyle = lipgloss.NewStyle().Foreground(colorSecondary)
	actualBarStyle  = lipgloss.NewStyle().Foreground(colorPrimary)
	overBarStyle    = lipgloss.NewStyle().Foreground(colorAccent)
)

var priorityStyles = map[labor.Priority]lipgloss.Style{
	labor.PriorityHigh:   errorStyle,
	labor.PriorityMedium: warningStyle,
	labor.PriorityLow:    successStyle,
}

var statusStyles = map[string]lipgloss.Style{
	store.StatusNotStarted: normalItemStyle,
	store.StatusInProgress: highlightStyle,
	store.StatusPaused:     warningStyle,
	store.StatusCompleted:  successStyle,
	store.StatusCancelled:  mutedStyle,
}

// priorityStyleFor renders a priority label; unknown values are muted.
func priorityStyleFor(p string) string {
	if s, ok := priorityStyles[labor.Priority(p)]; ok {
		return s.Render(p)
	}
	return mutedStyle.Render(p)
}

func statusStyleFor(s string) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(s)
	}
	return mutedStyle.Render(s)
}
