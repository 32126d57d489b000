package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = `id, full_name, username, email, role, team_id, created_at`

func (s *Store) CreateUser(fullName, username, email, role string, teamID *int64) (*User, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO users (full_name, username, email, role, team_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		fullName, username, email, role, teamID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", classify(err))
	}
	id, _ := res.LastInsertId()
	return s.GetUser(id)
}

func (s *Store) GetUser(id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// TeamMembers returns the users that belong to a team.
func (s *Store) TeamMembers(teamID int64) ([]User, error) {
	rows, err := s.db.Query(`SELECT `+userColumns+` FROM users WHERE team_id = ? ORDER BY full_name, id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(id int64, fullName, email, role string, teamID *int64) error {
	res, err := s.db.Exec(
		`UPDATE users SET full_name = ?, email = ?, role = ?, team_id = ? WHERE id = ?`,
		fullName, email, role, teamID, id,
	)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, classify(err))
	}
	return affected(res, "user", id)
}

func (s *Store) DeleteUser(id int64) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(classify(err), ErrInvalidReference) {
			return fmt.Errorf("user %d is still assigned to tasks: %w", id, ErrConflict)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return affected(res, "user", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*User, error) {
	u := &User{}
	var teamID sql.NullInt64
	var createdAt string
	if err := r.Scan(&u.ID, &u.FullName, &u.Username, &u.Email, &u.Role, &teamID, &createdAt); err != nil {
		return nil, err
	}
	u.TeamID = nullableID(teamID)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// affected reports ErrNotFound when a write touched no rows.
func affected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
