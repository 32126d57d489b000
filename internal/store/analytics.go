package store

import (
	"fmt"
	"time"
)

// TaskBreakdown counts a user's tasks that start inside [from, to], grouped
// by priority, work size and completion date.
func (s *Store) TaskBreakdown(userID int64, from, to time.Time) ([]TaskBreakdown, error) {
	rows, err := s.db.Query(`
		SELECT t.priority, t.work_size, t.completion_date, COUNT(*)
		FROM tasks t
		JOIN task_assignees a ON a.task_id = t.id
		WHERE a.user_id = ? AND t.start_date BETWEEN ? AND ?
		GROUP BY t.priority, t.work_size, t.completion_date
		ORDER BY t.completion_date, t.priority, t.work_size`,
		userID, from.Format(dateLayout), to.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("task breakdown: %w", err)
	}
	defer rows.Close()

	var out []TaskBreakdown
	for rows.Next() {
		var b TaskBreakdown
		if err := rows.Scan(&b.Priority, &b.WorkSize, &b.CompletionDate, &b.TaskCount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TeamPerformance sums each member's planned and actual labor over the team's
// tasks that start inside [from, to].
func (s *Store) TeamPerformance(teamID int64, from, to time.Time) ([]MemberPerformance, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.full_name, COALESCE(SUM(a.planned_labor), 0), COALESCE(SUM(a.actual_labor), 0), COUNT(*)
		FROM task_assignees a
		JOIN tasks t ON t.id = a.task_id
		JOIN users u ON u.id = a.user_id
		WHERE t.team_id = ? AND t.start_date BETWEEN ? AND ?
		GROUP BY u.id, u.full_name
		ORDER BY u.full_name, u.id`,
		teamID, from.Format(dateLayout), to.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("team performance: %w", err)
	}
	defer rows.Close()

	var out []MemberPerformance
	for rows.Next() {
		var p MemberPerformance
		if err := rows.Scan(&p.UserID, &p.UserName, &p.TotalPlanned, &p.TotalActual, &p.TaskCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// OpenTasksDueBy returns tasks that are neither completed nor cancelled and
// whose completion date is on or before day, with their assignees.
func (s *Store) OpenTasksDueBy(day time.Time) ([]Task, error) {
	rows, err := s.db.Query(`SELECT `+taskColumns+` FROM tasks t
		WHERE t.status NOT IN (?, ?) AND t.completion_date <= ?
		ORDER BY t.completion_date, t.id`,
		StatusCompleted, StatusCancelled, day.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("open tasks due: %w", err)
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
