package labor

import "time"

// Priority is a task's ordinal urgency.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Task is one unit of planned work as seen by the engine. Dates are calendar
// days; only their year, month and day are used.
type Task struct {
	ID             int64
	Description    string
	Priority       Priority
	Status         string
	WorkSize       int
	TeamID         int64
	StartDate      time.Time
	CompletionDate time.Time
	PlannedLabor   float64
	ActualLabor    float64
}

// Assignment pairs a task with one of its assignees. The task's labor
// figures are the assignee's share, not the task total.
type Assignment struct {
	UserID   int64
	UserName string
	Task     Task
}

// DailyBucket holds the labor apportioned to a single day.
type DailyBucket struct {
	Date           time.Time
	PlannedLabor   float64
	ActualLabor    float64
	RemainingLabor float64
	Tasks          []Task
}

// UserDistribution is one user's daily workload over a window.
type UserDistribution struct {
	UserID            int64
	UserName          string
	DailyDistribution []DailyBucket
}

const dateLayout = "2006-01-02"

// MaxWindowDays bounds the windows the service layer accepts and configures.
const MaxWindowDays = 731

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// WindowDays counts the calendar days in the inclusive window [from, to].
func WindowDays(from, to time.Time) int {
	return daysBetween(Day(from), Day(to)) + 1
}

const secondsPerDay = 24 * 60 * 60

// daysBetween counts whole days from a to b; both must be UTC midnights.
// Counted in Unix seconds; a time.Duration saturates past ~292 years.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}
