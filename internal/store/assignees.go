package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/taskflow/internal/labor"
)

func (s *Store) ListAssignees(taskID int64) ([]Assignee, error) {
	rows, err := s.db.Query(`
		SELECT a.task_id, a.user_id, u.full_name, a.role, a.planned_labor, a.actual_labor
		FROM task_assignees a
		JOIN users u ON u.id = a.user_id
		WHERE a.task_id = ?
		ORDER BY u.full_name, a.user_id`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var assignees []Assignee
	for rows.Next() {
		var a Assignee
		if err := rows.Scan(&a.TaskID, &a.UserID, &a.UserName, &a.Role, &a.PlannedLabor, &a.ActualLabor); err != nil {
			return nil, err
		}
		assignees = append(assignees, a)
	}
	return assignees, rows.Err()
}

func insertAssignees(tx *sql.Tx, taskID int64, in []AssigneeInput) error {
	for _, a := range in {
		role := a.Role
		if role == "" {
			role = "assignee"
		}
		_, err := tx.Exec(
			`INSERT INTO task_assignees (task_id, user_id, role, planned_labor, actual_labor) VALUES (?, ?, ?, ?, ?)`,
			taskID, a.UserID, role, a.PlannedLabor, a.ActualLabor,
		)
		if err != nil {
			return fmt.Errorf("insert assignee %d: %w", a.UserID, classify(err))
		}
	}
	return nil
}

// LogEffort adds hours to a user's actual labor on a task, and to the task's
// total. A task that had not started yet moves to In Progress.
func (s *Store) LogEffort(taskID, userID int64, hours float64, note string) (*Task, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("effort must be positive, got %v", hours)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE task_assignees SET actual_labor = actual_labor + ? WHERE task_id = ? AND user_id = ?`,
		hours, taskID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("log effort: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("user %d on task %d: %w", userID, taskID, ErrNotFound)
	}

	_, err = tx.Exec(
		`UPDATE tasks SET actual_labor = actual_labor + ?,
			status = CASE WHEN status = ? THEN ? ELSE status END,
			updated_at = ?
		 WHERE id = ?`,
		hours, StatusNotStarted, StatusInProgress, now, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task labor: %w", err)
	}

	desc := fmt.Sprintf("Logged %.2fh", hours)
	if note != "" {
		desc += ": " + note
	}
	if err := insertLog(tx, taskID, &userID, desc, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetTask(taskID)
}

// ListAssignments flattens tasks and their assignees into one record per
// (task, user) pair, carrying the user's share of the labor. Rows are
// grouped by user name so callers see users in a stable order.
func (s *Store) ListAssignments(f TaskFilter) ([]labor.Assignment, error) {
	// Restrict rows to the assignee itself, not to tasks the assignee shares.
	byUser := f.AssigneeID
	f.AssigneeID = nil
	where, args := f.clause()
	if byUser != nil {
		if where == "" {
			where = ` WHERE a.user_id = ?`
		} else {
			where += ` AND a.user_id = ?`
		}
		args = append(args, *byUser)
	}
	join := ` JOIN task_assignees a ON a.task_id = t.id JOIN users u ON u.id = a.user_id`
	query := `SELECT a.user_id, u.full_name, t.id, t.description, t.priority, t.status, t.work_size,
			COALESCE(t.team_id, 0), t.start_date, t.completion_date, a.planned_labor, a.actual_labor
		FROM tasks t` + join + where + ` ORDER BY u.full_name, a.user_id, t.start_date, t.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []labor.Assignment
	for rows.Next() {
		var a labor.Assignment
		var priority, start, end string
		err := rows.Scan(&a.UserID, &a.UserName, &a.Task.ID, &a.Task.Description, &priority,
			&a.Task.Status, &a.Task.WorkSize, &a.Task.TeamID, &start, &end,
			&a.Task.PlannedLabor, &a.Task.ActualLabor)
		if err != nil {
			return nil, err
		}
		a.Task.Priority = labor.Priority(priority)
		a.Task.StartDate, _ = time.Parse(dateLayout, start)
		a.Task.CompletionDate, _ = time.Parse(dateLayout, end)
		out = append(out, a)
	}
	return out, rows.Err()
}

// LaborTask converts a stored task to the engine's view of it, using the
// task's total labor.
func (t Task) LaborTask() labor.Task {
	var teamID int64
	if t.TeamID != nil {
		teamID = *t.TeamID
	}
	return labor.Task{
		ID:             t.ID,
		Description:    t.Description,
		Priority:       labor.Priority(t.Priority),
		Status:         t.Status,
		WorkSize:       t.WorkSize,
		TeamID:         teamID,
		StartDate:      t.StartDate,
		CompletionDate: t.CompletionDate,
		PlannedLabor:   t.PlannedLabor,
		ActualLabor:    t.ActualLabor,
	}
}
