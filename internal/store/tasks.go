package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const taskColumns = `t.id, t.description, t.priority, t.status, t.start_date, t.completion_date,
	t.planned_labor, t.actual_labor, t.work_size, t.creator_id, t.team_id, t.created_at, t.updated_at`

// CreateTask inserts a task together with its assignees and records the
// creation in the task log.
func (s *Store) CreateTask(in TaskInput) (*Task, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	if in.Status == "" {
		in.Status = StatusNotStarted
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO tasks (description, priority, status, start_date, completion_date,
			planned_labor, actual_labor, work_size, creator_id, team_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Description, in.Priority, in.Status,
		in.StartDate.Format(dateLayout), in.CompletionDate.Format(dateLayout),
		in.PlannedLabor, in.ActualLabor, in.WorkSize, in.CreatorID, in.TeamID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", classify(err))
	}
	id, _ := res.LastInsertId()

	if err := insertAssignees(tx, id, in.Assignees); err != nil {
		return nil, err
	}
	if err := insertLog(tx, id, in.CreatorID, "Task created", now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	assignees, err := s.ListAssignees(id)
	if err != nil {
		return nil, err
	}
	t.Assignees = assignees
	return t, nil
}

// ListTasks returns tasks matching f, earliest start first. Assignees are
// loaded for every returned task.
func (s *Store) ListTasks(f TaskFilter) ([]Task, error) {
	where, args := f.clause()
	query := `SELECT ` + taskColumns + ` FROM tasks t` + where + ` ORDER BY t.start_date, t.id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range tasks {
		assignees, err := s.ListAssignees(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Assignees = assignees
	}
	return tasks, nil
}

// RecentTasks returns the most recently updated tasks.
func (s *Store) RecentTasks(teamID *int64, limit int) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t`
	var args []any
	if teamID != nil {
		query += ` WHERE t.team_id = ?`
		args = append(args, *teamID)
	}
	query += fmt.Sprintf(` ORDER BY t.updated_at DESC, t.id DESC LIMIT %d`, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask overwrites a task's fields. A nil in.Assignees leaves the
// assignee list untouched; a non-nil one replaces it.
func (s *Store) UpdateTask(id int64, in TaskInput, changedBy *int64) (*Task, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	before, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE tasks SET description = ?, priority = ?, status = ?, start_date = ?, completion_date = ?,
			planned_labor = ?, actual_labor = ?, work_size = ?, team_id = ?, updated_at = ?
		 WHERE id = ?`,
		in.Description, in.Priority, in.Status,
		in.StartDate.Format(dateLayout), in.CompletionDate.Format(dateLayout),
		in.PlannedLabor, in.ActualLabor, in.WorkSize, in.TeamID, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, classify(err))
	}

	if in.Assignees != nil {
		if _, err := tx.Exec(`DELETE FROM task_assignees WHERE task_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear assignees: %w", err)
		}
		if err := insertAssignees(tx, id, in.Assignees); err != nil {
			return nil, err
		}
	}

	if desc := describeChanges(before, in); desc != "" {
		if err := insertLog(tx, id, changedBy, desc, now); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetTask(id)
}

// SetTaskStatus changes only the status of a task.
func (s *Store) SetTaskStatus(id int64, status string, changedBy *int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if err := affected(res, "task", id); err != nil {
		return err
	}
	if err := insertLog(tx, id, changedBy, "Status changed to "+status, now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteTask(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return affected(res, "task", id)
}

// StatusCounts counts tasks per status, optionally within one team.
func (s *Store) StatusCounts(teamID *int64) ([]StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM tasks`
	var args []any
	if teamID != nil {
		query += ` WHERE team_id = ?`
		args = append(args, *teamID)
	}
	query += ` GROUP BY status ORDER BY status`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (f TaskFilter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.TeamID != nil {
		conds = append(conds, `t.team_id = ?`)
		args = append(args, *f.TeamID)
	}
	if f.AssigneeID != nil {
		conds = append(conds, `EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = ?)`)
		args = append(args, *f.AssigneeID)
	}
	if f.Status != "" {
		conds = append(conds, `t.status = ?`)
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		conds = append(conds, `t.priority = ?`)
		args = append(args, f.Priority)
	}
	if f.From != nil {
		conds = append(conds, `t.completion_date >= ?`)
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		conds = append(conds, `t.start_date <= ?`)
		args = append(args, f.To.Format(dateLayout))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func scanTask(r rowScanner) (*Task, error) {
	t := &Task{}
	var start, end, createdAt, updatedAt string
	var creatorID, teamID sql.NullInt64
	err := r.Scan(&t.ID, &t.Description, &t.Priority, &t.Status, &start, &end,
		&t.PlannedLabor, &t.ActualLabor, &t.WorkSize, &creatorID, &teamID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.StartDate, _ = time.Parse(dateLayout, start)
	t.CompletionDate, _ = time.Parse(dateLayout, end)
	t.CreatorID = nullableID(creatorID)
	t.TeamID = nullableID(teamID)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func describeChanges(before *Task, in TaskInput) string {
	var changes []string
	if before.Description != in.Description {
		changes = append(changes, "description")
	}
	if before.Priority != in.Priority {
		changes = append(changes, fmt.Sprintf("priority %s -> %s", before.Priority, in.Priority))
	}
	if before.Status != in.Status {
		changes = append(changes, fmt.Sprintf("status %s -> %s", before.Status, in.Status))
	}
	if !before.StartDate.Equal(in.StartDate) || !before.CompletionDate.Equal(in.CompletionDate) {
		changes = append(changes, fmt.Sprintf("dates %s..%s",
			in.StartDate.Format(dateLayout), in.CompletionDate.Format(dateLayout)))
	}
	if before.PlannedLabor != in.PlannedLabor || before.ActualLabor != in.ActualLabor {
		changes = append(changes, fmt.Sprintf("labor %.1f/%.1f", in.ActualLabor, in.PlannedLabor))
	}
	if before.WorkSize != in.WorkSize {
		changes = append(changes, fmt.Sprintf("work size %d -> %d", before.WorkSize, in.WorkSize))
	}
	if in.Assignees != nil {
		changes = append(changes, fmt.Sprintf("%d assignees", len(in.Assignees)))
	}
	if len(changes) == 0 {
		return ""
	}
	return "Updated " + strings.Join(changes, ", ")
}
