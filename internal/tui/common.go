package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewOverview viewState = iota
	viewTasks
	viewWorkload
	viewSettings
)

var viewNames = []string{"Overview", "Tasks", "Workload", "Settings"}

// --- Messages ---

type taskCreatedMsg struct {
	task *store.Task
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

func errStatus(format string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf(format, err), isError: true}
}

// --- Helpers ---

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func formatDay(t time.Time) string {
	return t.Format("Jan 02")
}

func today() time.Time {
	return labor.Day(time.Now())
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
