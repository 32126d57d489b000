package store

import (
	"database/sql"
	"fmt"
	"time"
)

const notificationColumns = `id, task_id, sender_user_id, receiver_user_id, type, message, is_read, created_at`

func (s *Store) CreateNotification(taskID, senderID *int64, receiverID int64, typ, message string) (*Notification, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO notifications (task_id, sender_user_id, receiver_user_id, type, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		taskID, senderID, receiverID, typ, message, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", classify(err))
	}
	id, _ := res.LastInsertId()
	return s.GetNotification(id)
}

func (s *Store) GetNotification(id int64) (*Notification, error) {
	n, err := scanNotification(s.db.QueryRow(`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "notification", id)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(receiverID int64, unreadOnly bool) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE receiver_user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *Store) UnreadCount(receiverID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE receiver_user_id = ? AND is_read = 0`, receiverID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(id int64) error {
	res, err := s.db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return affected(res, "notification", id)
}

func (s *Store) MarkAllNotificationsRead(receiverID int64) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE notifications SET is_read = 1 WHERE receiver_user_id = ? AND is_read = 0`, receiverID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}

// HasNotificationSince reports whether a notification of the given type for
// the task was already sent to the user at or after since.
func (s *Store) HasNotificationSince(taskID, receiverID int64, typ string, since time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM notifications
		WHERE task_id = ? AND receiver_user_id = ? AND type = ? AND created_at >= ?`,
		taskID, receiverID, typ, since.UTC().Format(time.RFC3339),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return n > 0, nil
}

func scanNotification(r rowScanner) (*Notification, error) {
	n := &Notification{}
	var taskID, senderID sql.NullInt64
	var isRead int
	var createdAt string
	err := r.Scan(&n.ID, &taskID, &senderID, &n.ReceiverUserID, &n.Type, &n.Message, &isRead, &createdAt)
	if err != nil {
		return nil, err
	}
	n.TaskID = nullableID(taskID)
	n.SenderUserID = nullableID(senderID)
	n.IsRead = isRead == 1
	n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return n, nil
}
