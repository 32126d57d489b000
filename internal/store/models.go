package store

import "time"

// Task statuses.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusPaused     = "Paused"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// Statuses lists every task status in workflow order.
var Statuses = []string{StatusNotStarted, StatusInProgress, StatusPaused, StatusCompleted, StatusCancelled}

// Priorities lists the accepted task priorities, highest first.
var Priorities = []string{"High", "Medium", "Low"}

// Notification types.
const (
	NotifyAssigned = "task_assigned"
	NotifyUpdated  = "task_updated"
	NotifyDueSoon  = "due_soon"
	NotifyOverdue  = "overdue"
)

type User struct {
	ID        int64
	FullName  string
	Username  string
	Email     string
	Role      string // user, manager, admin
	TeamID    *int64
	CreatedAt time.Time
}

type Team struct {
	ID        int64
	Name      string
	ManagerID *int64
	CreatedAt time.Time
}

type Task struct {
	ID             int64
	Description    string
	Priority       string
	Status         string
	StartDate      time.Time
	CompletionDate time.Time
	PlannedLabor   float64
	ActualLabor    float64
	WorkSize       int
	CreatorID      *int64
	TeamID         *int64
	Assignees      []Assignee
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assignee is a user's share of a task.
type Assignee struct {
	TaskID       int64
	UserID       int64
	UserName     string
	Role         string
	PlannedLabor float64
	ActualLabor  float64
}

// TaskInput carries the writable fields of a task.
type TaskInput struct {
	Description    string
	Priority       string
	Status         string
	StartDate      time.Time
	CompletionDate time.Time
	PlannedLabor   float64
	ActualLabor    float64
	WorkSize       int
	CreatorID      *int64
	TeamID         *int64
	Assignees      []AssigneeInput
}

type AssigneeInput struct {
	UserID       int64
	Role         string
	PlannedLabor float64
	ActualLabor  float64
}

type Notification struct {
	ID             int64
	TaskID         *int64
	SenderUserID   *int64
	ReceiverUserID int64
	Type           string
	Message        string
	IsRead         bool
	CreatedAt      time.Time
}

type TaskLog struct {
	ID              int64
	TaskID          int64
	ChangedByUserID *int64
	Description     string
	CreatedAt       time.Time
}

type Setting struct {
	Key   string
	Value string
}

// TaskFilter is used to filter tasks and assignments in queries.
// From/To select tasks whose active interval overlaps [From, To].
type TaskFilter struct {
	TeamID     *int64
	AssigneeID *int64
	Status     string
	Priority   string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// TaskBreakdown counts a user's tasks per priority, size and due date.
type TaskBreakdown struct {
	Priority       string
	WorkSize       int
	CompletionDate string
	TaskCount      int
}

// MemberPerformance aggregates planned and actual labor per team member.
type MemberPerformance struct {
	UserID       int64
	UserName     string
	TotalPlanned float64
	TotalActual  float64
	TaskCount    int
}

type StatusCount struct {
	Status string
	Count  int
}

// IsValidStatus reports whether s is a known task status.
func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is a known task priority.
func IsValidPriority(p string) bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// IsOpen reports whether a task with status s still has work left.
func IsOpen(s string) bool {
	return s != StatusCompleted && s != StatusCancelled
}
