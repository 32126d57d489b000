package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

// Date is a calendar date carried as "YYYY-MM-DD" in JSON.
type Date struct{ time.Time }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(labor.FormatDate(d.Time))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// parseDate accepts YYYY-MM-DD, or an RFC 3339 timestamp whose date part is
// used.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return labor.Day(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

type userJSON struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TeamID    *int64    `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toUser(u store.User) userJSON {
	return userJSON{
		ID: u.ID, FullName: u.FullName, Username: u.Username, Email: u.Email,
		Role: u.Role, TeamID: u.TeamID, CreatedAt: u.CreatedAt,
	}
}

func toUsers(us []store.User) []userJSON {
	out := make([]userJSON, len(us))
	for i, u := range us {
		out[i] = toUser(u)
	}
	return out
}

type teamJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ManagerID *int64    `json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toTeam(t store.Team) teamJSON {
	return teamJSON{ID: t.ID, Name: t.Name, ManagerID: t.ManagerID, CreatedAt: t.CreatedAt}
}

type assigneeJSON struct {
	UserID       int64   `json:"user_id"`
	UserName     string  `json:"user_name"`
	Role         string  `json:"role"`
	PlannedLabor float64 `json:"planned_labor"`
	ActualLabor  float64 `json:"actual_labor"`
}

func toAssignees(as []store.Assignee) []assigneeJSON {
	out := make([]assigneeJSON, len(as))
	for i, a := range as {
		out[i] = assigneeJSON{
			UserID: a.UserID, UserName: a.UserName, Role: a.Role,
			PlannedLabor: a.PlannedLabor, ActualLabor: a.ActualLabor,
		}
	}
	return out
}

type taskJSON struct {
	ID             int64          `json:"id"`
	Description    string         `json:"description"`
	Priority       string         `json:"priority"`
	Status         string         `json:"status"`
	StartDate      Date           `json:"start_date"`
	CompletionDate Date           `json:"completion_date"`
	PlannedLabor   float64        `json:"planned_labor"`
	ActualLabor    float64        `json:"actual_labor"`
	WorkSize       int            `json:"work_size"`
	CreatorID      *int64         `json:"creator_id"`
	TeamID         *int64         `json:"team_id"`
	Assignees      []assigneeJSON `json:"assignees"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toTask(t store.Task) taskJSON {
	return taskJSON{
		ID: t.ID, Description: t.Description, Priority: t.Priority, Status: t.Status,
		StartDate: Date{t.StartDate}, CompletionDate: Date{t.CompletionDate},
		PlannedLabor: t.PlannedLabor, ActualLabor: t.ActualLabor, WorkSize: t.WorkSize,
		CreatorID: t.CreatorID, TeamID: t.TeamID, Assignees: toAssignees(t.Assignees),
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

func toTasks(ts []store.Task) []taskJSON {
	out := make([]taskJSON, len(ts))
	for i, t := range ts {
		out[i] = toTask(t)
	}
	return out
}

type taskLogJSON struct {
	ID              int64     `json:"id"`
	TaskID          int64     `json:"task_id"`
	ChangedByUserID *int64    `json:"changed_by_user_id"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTaskLogs(ls []store.TaskLog) []taskLogJSON {
	out := make([]taskLogJSON, len(ls))
	for i, l := range ls {
		out[i] = taskLogJSON{
			ID: l.ID, TaskID: l.TaskID, ChangedByUserID: l.ChangedByUserID,
			Description: l.Description, CreatedAt: l.CreatedAt,
		}
	}
	return out
}

type notificationJSON struct {
	ID             int64     `json:"id"`
	TaskID         *int64    `json:"task_id"`
	SenderUserID   *int64    `json:"sender_user_id"`
	ReceiverUserID int64     `json:"receiver_user_id"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func toNotification(n store.Notification) notificationJSON {
	return notificationJSON{
		ID: n.ID, TaskID: n.TaskID, SenderUserID: n.SenderUserID, ReceiverUserID: n.ReceiverUserID,
		Type: n.Type, Message: n.Message, IsRead: n.IsRead, CreatedAt: n.CreatedAt,
	}
}

// bucketTaskJSON is the slice of a task shown inside a day's bucket.
type bucketTaskJSON struct {
	ID             int64   `json:"id"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	Status         string  `json:"status"`
	WorkSize       int     `json:"work_size"`
	StartDate      Date    `json:"start_date"`
	CompletionDate Date    `json:"completion_date"`
	PlannedLabor   float64 `json:"planned_labor"`
	ActualLabor    float64 `json:"actual_labor"`
}

type bucketJSON struct {
	Date           Date             `json:"date"`
	PlannedLabor   float64          `json:"planned_labor"`
	ActualLabor    float64          `json:"actual_labor"`
	RemainingLabor float64          `json:"remaining_labor"`
	Tasks          []bucketTaskJSON `json:"tasks"`
}

type distributionJSON struct {
	UserID            int64        `json:"user_id"`
	UserName          string       `json:"user_name"`
	DailyDistribution []bucketJSON `json:"daily_distribution"`
}

func toBuckets(bs []labor.DailyBucket) []bucketJSON {
	out := make([]bucketJSON, len(bs))
	for i, b := range bs {
		tasks := make([]bucketTaskJSON, len(b.Tasks))
		for j, t := range b.Tasks {
			tasks[j] = bucketTaskJSON{
				ID: t.ID, Description: t.Description, Priority: string(t.Priority), Status: t.Status,
				WorkSize: t.WorkSize, StartDate: Date{t.StartDate}, CompletionDate: Date{t.CompletionDate},
				PlannedLabor: t.PlannedLabor, ActualLabor: t.ActualLabor,
			}
		}
		out[i] = bucketJSON{
			Date: Date{b.Date}, PlannedLabor: b.PlannedLabor, ActualLabor: b.ActualLabor,
			RemainingLabor: b.RemainingLabor, Tasks: tasks,
		}
	}
	return out
}

func toDistribution(d labor.UserDistribution) distributionJSON {
	return distributionJSON{UserID: d.UserID, UserName: d.UserName, DailyDistribution: toBuckets(d.DailyDistribution)}
}

func toDistributions(ds []labor.UserDistribution) []distributionJSON {
	out := make([]distributionJSON, len(ds))
	for i, d := range ds {
		out[i] = toDistribution(d)
	}
	return out
}

type breakdownJSON struct {
	Priority       string `json:"priority"`
	WorkSize       int    `json:"work_size"`
	CompletionDate string `json:"completion_date"`
	TaskCount      int    `json:"task_count"`
}

type performanceJSON struct {
	UserID       int64   `json:"user_id"`
	UserName     string  `json:"user_name"`
	TotalPlanned float64 `json:"total_planned_labor"`
	TotalActual  float64 `json:"total_actual_labor"`
	TaskCount    int     `json:"task_count"`
}

type overviewJSON struct {
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	ByStatus map[string]int `json:"by_status"`
	Recent   []taskJSON     `json:"recent"`
}

func toOverview(o *analytics.Overview) overviewJSON {
	by := make(map[string]int, len(o.ByStatus))
	for _, c := range o.ByStatus {
		by[c.Status] = c.Count
	}
	return overviewJSON{Total: o.Total, Open: o.Open, ByStatus: by, Recent: toTasks(o.Recent)}
}
