package store

import (
	"database/sql"
	"fmt"
	"time"
)

func insertLog(tx *sql.Tx, taskID int64, changedBy *int64, desc, at string) error {
	_, err := tx.Exec(
		`INSERT INTO task_logs (task_id, changed_by_user_id, description, created_at) VALUES (?, ?, ?, ?)`,
		taskID, changedBy, desc, at,
	)
	if err != nil {
		return fmt.Errorf("insert task log: %w", classify(err))
	}
	return nil
}

// ListTaskLogs returns a task's history, newest first.
func (s *Store) ListTaskLogs(taskID int64) ([]TaskLog, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, changed_by_user_id, description, created_at
		FROM task_logs WHERE task_id = ?
		ORDER BY created_at DESC, id DESC`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list task logs: %w", err)
	}
	defer rows.Close()

	var logs []TaskLog
	for rows.Next() {
		var l TaskLog
		var changedBy sql.NullInt64
		var createdAt string
		if err := rows.Scan(&l.ID, &l.TaskID, &changedBy, &l.Description, &createdAt); err != nil {
			return nil, err
		}
		l.ChangedByUserID = nullableID(changedBy)
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
