package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sadopc/taskflow/internal/store"
)

var notificationTypes = map[string]bool{
	store.NotifyAssigned: true,
	store.NotifyUpdated:  true,
	store.NotifyDueSoon:  true,
	store.NotifyOverdue:  true,
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := requireQueryID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	list, err := s.store.ListNotifications(userID, unread)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]notificationJSON, len(list))
	for i, n := range list {
		out[i] = toNotification(n)
	}
	writeJSON(w, http.StatusOK, out)
}

type notificationRequest struct {
	TaskID         *int64 `json:"task_id"`
	SenderUserID   *int64 `json:"sender_user_id"`
	ReceiverUserID int64  `json:"receiver_user_id"`
	Type           string `json:"type"`
	Message        string `json:"message"`
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ReceiverUserID <= 0 {
		s.writeError(w, r, badRequest("receiver_user_id is required"))
		return
	}
	if !notificationTypes[req.Type] {
		s.writeError(w, r, badRequest("unknown notification type %q", req.Type))
		return
	}
	n, err := s.store.CreateNotification(req.TaskID, req.SenderUserID, req.ReceiverUserID, req.Type, strings.TrimSpace(req.Message))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNotification(*n))
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := requireQueryID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.UnreadCount(userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.MarkNotificationRead(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.GetNotification(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotification(*n))
}

type readAllRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	var req readAllRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID <= 0 {
		s.writeError(w, r, badRequest("user_id is required"))
		return
	}
	n, err := s.store.MarkAllNotificationsRead(req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
