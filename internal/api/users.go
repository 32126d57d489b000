package api

import (
	"net/http"
	"strings"

	"github.com/sadopc/taskflow/internal/store"
)

var roles = map[string]bool{"user": true, "manager": true, "admin": true}

type userRequest struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TeamID   *int64 `json:"team_id"`
}

func (req *userRequest) validate(create bool) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" {
		return badRequest("full_name is required")
	}
	if create && req.Username == "" {
		return badRequest("username is required")
	}
	if req.Role == "" {
		req.Role = "user"
	}
	if !roles[req.Role] {
		return badRequest("unknown role %q", req.Role)
	}
	return nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	teamID, err := queryID(r, "team_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var users []store.User
	if teamID != nil {
		users, err = s.store.TeamMembers(*teamID)
	} else {
		users, err = s.store.ListUsers()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsers(users))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(true); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.CreateUser(req.FullName, req.Username, req.Email, req.Role, req.TeamID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(*u))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.GetUser(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(*u))
}

// handleUpdateUser replaces a user's profile; usernames are immutable.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateUser(id, req.FullName, req.Email, req.Role, req.TeamID); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.GetUser(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(*u))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.store.GetUser(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	tasks, err := s.store.ListTasks(store.TaskFilter{AssigneeID: &id, Limit: limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTasks(tasks))
}
