// Package api serves taskflow's JSON REST interface under /api.
package api

import (
	"net/http"
	"sync"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/store"
)

// Options are the settings that may change while the server runs.
type Options struct {
	RatePerSec  float64
	Burst       int
	CORSOrigins []string
}

type Server struct {
	store     *store.Store
	analytics *analytics.Service
	log       logx.Logger

	limiter *ipLimiter

	mu          sync.RWMutex
	corsOrigins map[string]bool
	corsAny     bool

	handler http.Handler
}

func New(st *store.Store, an *analytics.Service, log logx.Logger, opts Options) *Server {
	s := &Server{
		store:     st,
		analytics: an,
		log:       log.With(logx.String("comp", "api")),
		limiter:   newIPLimiter(),
	}
	s.Apply(opts)

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = s.requestID(s.accessLog(s.recoverer(s.cors(s.rateLimit(mux)))))
	return s
}

// Apply updates rate limits and allowed CORS origins.
func (s *Server) Apply(opts Options) {
	s.limiter.setLimit(opts.RatePerSec, opts.Burst)

	origins := make(map[string]bool, len(opts.CORSOrigins))
	anyOrigin := false
	for _, o := range opts.CORSOrigins {
		if o == "*" {
			anyOrigin = true
		}
		origins[o] = true
	}
	s.mu.Lock()
	s.corsOrigins = origins
	s.corsAny = anyOrigin
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("PUT /api/users/{id}", s.handleUpdateUser)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeleteUser)
	mux.HandleFunc("GET /api/users/{id}/tasks", s.handleUserTasks)

	mux.HandleFunc("GET /api/teams", s.handleListTeams)
	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("GET /api/teams/{id}", s.handleGetTeam)
	mux.HandleFunc("PUT /api/teams/{id}", s.handleUpdateTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", s.handleDeleteTeam)
	mux.HandleFunc("GET /api/teams/{id}/members", s.handleTeamMembers)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/status", s.handleSetTaskStatus)
	mux.HandleFunc("GET /api/tasks/{id}/assignees", s.handleTaskAssignees)
	mux.HandleFunc("GET /api/tasks/{id}/history", s.handleTaskHistory)
	mux.HandleFunc("POST /api/tasks/{id}/effort", s.handleLogEffort)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications", s.handleCreateNotification)
	mux.HandleFunc("GET /api/notifications/unread-count", s.handleUnreadCount)
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("PUT /api/notifications/read-all", s.handleMarkAllRead)

	mux.HandleFunc("GET /api/analytics/overview", s.handleOverview)
	mux.HandleFunc("GET /api/analytics/user-task-distribution", s.handleUserTaskDistribution)
	mux.HandleFunc("GET /api/analytics/performance", s.handlePerformance)
	mux.HandleFunc("GET /api/analytics/labor", s.handleUserLabor)
	mux.HandleFunc("GET /api/analytics/user-detailed-distribution", s.handleUserLabor)
	mux.HandleFunc("GET /api/analytics/labor/team", s.handleTeamLabor)
	mux.HandleFunc("POST /api/analytics/redistribute", s.handleRedistribute)
	mux.HandleFunc("POST /api/analytics/optimize-task-distribution", s.handleRedistribute)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
