package store

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) CreateTeam(name string, managerID *int64) (*Team, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO teams (name, manager_id, created_at) VALUES (?, ?, ?)`,
		name, managerID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", classify(err))
	}
	id, _ := res.LastInsertId()
	return s.GetTeam(id)
}

func (s *Store) GetTeam(id int64) (*Team, error) {
	t := &Team{}
	var managerID sql.NullInt64
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, manager_id, created_at FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &managerID, &createdAt)
	if err != nil {
		return nil, notFound(err, "team", id)
	}
	t.ManagerID = nullableID(managerID)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return t, nil
}

func (s *Store) ListTeams() ([]Team, error) {
	rows, err := s.db.Query(`SELECT id, name, manager_id, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		var managerID sql.NullInt64
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &managerID, &createdAt); err != nil {
			return nil, err
		}
		t.ManagerID = nullableID(managerID)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *Store) UpdateTeam(id int64, name string, managerID *int64) error {
	res, err := s.db.Exec(
		`UPDATE teams SET name = ?, manager_id = ? WHERE id = ?`,
		name, managerID, id,
	)
	if err != nil {
		return fmt.Errorf("update team %d: %w", id, classify(err))
	}
	return affected(res, "team", id)
}

// DeleteTeam removes a team that has no members and no tasks. Teams still in
// use are rejected with ErrConflict so their users and tasks can be moved
// first.
func (s *Store) DeleteTeam(id int64) error {
	var users, tasks int
	err := s.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM users WHERE team_id = ?), (SELECT COUNT(*) FROM tasks WHERE team_id = ?)`,
		id, id,
	).Scan(&users, &tasks)
	if err != nil {
		return fmt.Errorf("count team references: %w", err)
	}
	if users > 0 || tasks > 0 {
		return fmt.Errorf("team %d still has %d users and %d tasks: %w", id, users, tasks, ErrConflict)
	}

	res, err := s.db.Exec(`DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team %d: %w", id, err)
	}
	return affected(res, "team", id)
}
