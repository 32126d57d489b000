package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/store"
)

type assigneeRequest struct {
	UserID       int64   `json:"user_id"`
	Role         string  `json:"role"`
	PlannedLabor float64 `json:"planned_labor"`
	ActualLabor  float64 `json:"actual_labor"`
}

// taskRequest is used for both create and update. On update, omitted
// fields keep their stored values and an omitted assignees list is left
// alone.
type taskRequest struct {
	Description    *string            `json:"description"`
	Priority       *string            `json:"priority"`
	Status         *string            `json:"status"`
	StartDate      *Date              `json:"start_date"`
	CompletionDate *Date              `json:"completion_date"`
	PlannedLabor   *float64           `json:"planned_labor"`
	ActualLabor    *float64           `json:"actual_labor"`
	WorkSize       *int               `json:"work_size"`
	CreatorID      *int64             `json:"creator_id"`
	TeamID         *int64             `json:"team_id"`
	Assignees      *[]assigneeRequest `json:"assignees"`
	ChangedBy      *int64             `json:"changed_by"`
}

// apply overlays the request on base.
func (req taskRequest) apply(base store.TaskInput) store.TaskInput {
	in := base
	if req.Description != nil {
		in.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		in.Priority = *req.Priority
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.StartDate != nil {
		in.StartDate = req.StartDate.Time
	}
	if req.CompletionDate != nil {
		in.CompletionDate = req.CompletionDate.Time
	}
	if req.PlannedLabor != nil {
		in.PlannedLabor = *req.PlannedLabor
	}
	if req.ActualLabor != nil {
		in.ActualLabor = *req.ActualLabor
	}
	if req.WorkSize != nil {
		in.WorkSize = *req.WorkSize
	}
	if req.CreatorID != nil {
		in.CreatorID = req.CreatorID
	}
	if req.TeamID != nil {
		in.TeamID = req.TeamID
	}
	if req.Assignees != nil {
		in.Assignees = make([]store.AssigneeInput, 0, len(*req.Assignees))
		for _, a := range *req.Assignees {
			in.Assignees = append(in.Assignees, store.AssigneeInput{
				UserID: a.UserID, Role: a.Role, PlannedLabor: a.PlannedLabor, ActualLabor: a.ActualLabor,
			})
		}
	}
	return in
}

func validateTask(in store.TaskInput) error {
	if in.Description == "" {
		return badRequest("description is required")
	}
	if !store.IsValidPriority(in.Priority) {
		return badRequest("priority must be one of %s", strings.Join(store.Priorities, ", "))
	}
	if !store.IsValidStatus(in.Status) {
		return badRequest("status must be one of %s", strings.Join(store.Statuses, ", "))
	}
	if in.StartDate.IsZero() || in.CompletionDate.IsZero() {
		return badRequest("start_date and completion_date are required")
	}
	if in.CompletionDate.Before(in.StartDate) {
		return badRequest("completion_date is before start_date")
	}
	if in.PlannedLabor < 0 || in.ActualLabor < 0 {
		return badRequest("labor must not be negative")
	}
	if in.WorkSize < 1 {
		return badRequest("work_size must be at least 1")
	}
	seen := make(map[int64]bool, len(in.Assignees))
	for _, a := range in.Assignees {
		if a.UserID <= 0 {
			return badRequest("assignee user_id is required")
		}
		if seen[a.UserID] {
			return badRequest("user %d is assigned twice", a.UserID)
		}
		seen[a.UserID] = true
		if a.PlannedLabor < 0 || a.ActualLabor < 0 {
			return badRequest("assignee labor must not be negative")
		}
	}
	return nil
}

func inputFrom(t *store.Task) store.TaskInput {
	return store.TaskInput{
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         t.Status,
		StartDate:      t.StartDate,
		CompletionDate: t.CompletionDate,
		PlannedLabor:   t.PlannedLabor,
		ActualLabor:    t.ActualLabor,
		WorkSize:       t.WorkSize,
		CreatorID:      t.CreatorID,
		TeamID:         t.TeamID,
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var f store.TaskFilter
	var err error
	if f.TeamID, err = queryID(r, "team_id"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.AssigneeID, err = queryID(r, "assignee_id"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.From, err = queryDate(r, "start_date"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.To, err = queryDate(r, "end_date"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Limit, err = queryLimit(r, 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f.Status = q.Get("status")
	f.Priority = q.Get("priority")
	if f.Status != "" && !store.IsValidStatus(f.Status) {
		s.writeError(w, r, badRequest("unknown status %q", f.Status))
		return
	}
	if f.Priority != "" && !store.IsValidPriority(f.Priority) {
		s.writeError(w, r, badRequest("unknown priority %q", f.Priority))
		return
	}

	tasks, err := s.store.ListTasks(f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTasks(tasks))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in := req.apply(store.TaskInput{
		Priority: "Medium",
		Status:   store.StatusNotStarted,
		WorkSize: 1,
	})
	if err := validateTask(in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.CreateTask(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notifyAssignees(t, in.CreatorID, store.NotifyAssigned, "You were assigned to task: "+t.Description)
	writeJSON(w, http.StatusCreated, toTask(*t))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.GetTask(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTask(*t))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	current, err := s.store.GetTask(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in := req.apply(inputFrom(current))
	if err := validateTask(in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.UpdateTask(id, in, req.ChangedBy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notifyAssignees(t, req.ChangedBy, store.NotifyUpdated, "Task updated: "+t.Description)
	writeJSON(w, http.StatusOK, toTask(*t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteTask(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status    string `json:"status"`
	ChangedBy *int64 `json:"changed_by"`
}

func (s *Server) handleSetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !store.IsValidStatus(req.Status) {
		s.writeError(w, r, badRequest("status must be one of %s", strings.Join(store.Statuses, ", ")))
		return
	}
	if err := s.store.SetTaskStatus(id, req.Status, req.ChangedBy); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.GetTask(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notifyAssignees(t, req.ChangedBy, store.NotifyUpdated, fmt.Sprintf("Task %q is now %s", t.Description, t.Status))
	writeJSON(w, http.StatusOK, toTask(*t))
}

func (s *Server) handleTaskAssignees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.GetTask(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignees(t.Assignees))
}

func (s *Server) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.store.GetTask(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	logs, err := s.store.ListTaskLogs(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskLogs(logs))
}

type effortRequest struct {
	UserID int64   `json:"user_id"`
	Hours  float64 `json:"hours"`
	Note   string  `json:"note"`
}

func (s *Server) handleLogEffort(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req effortRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID <= 0 {
		s.writeError(w, r, badRequest("user_id is required"))
		return
	}
	if req.Hours <= 0 {
		s.writeError(w, r, badRequest("hours must be positive"))
		return
	}
	t, err := s.store.LogEffort(id, req.UserID, req.Hours, strings.TrimSpace(req.Note))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTask(*t))
}

// notifyAssignees tells every assignee except the actor about a change.
// Failures are logged; the request has already succeeded.
func (s *Server) notifyAssignees(t *store.Task, actor *int64, typ, msg string) {
	for _, a := range t.Assignees {
		if actor != nil && *actor == a.UserID {
			continue
		}
		if _, err := s.store.CreateNotification(&t.ID, actor, a.UserID, typ, msg); err != nil {
			s.log.Warn("notify assignee failed",
				logx.Int64("task_id", t.ID),
				logx.Int64("user_id", a.UserID),
				logx.Err(err),
			)
		}
	}
}
