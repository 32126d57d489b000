package api

import (
	"net/http"
	"time"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	teamID, err := queryID(r, "team_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recent, err := queryLimit(r, 5)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.analytics.Overview(teamID, recent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOverview(o))
}

// handleUserTaskDistribution counts a user's tasks by priority, size and
// due date.
func (s *Server) handleUserTaskDistribution(w http.ResponseWriter, r *http.Request) {
	userID, err := requireQueryID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.analytics.Breakdown(userID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]breakdownJSON, len(rows))
	for i, b := range rows {
		out[i] = breakdownJSON{Priority: b.Priority, WorkSize: b.WorkSize, CompletionDate: b.CompletionDate, TaskCount: b.TaskCount}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	teamID, err := requireQueryID(r, "team_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.analytics.Performance(teamID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]performanceJSON, len(rows))
	for i, p := range rows {
		out[i] = performanceJSON{
			UserID: p.UserID, UserName: p.UserName,
			TotalPlanned: p.TotalPlanned, TotalActual: p.TotalActual, TaskCount: p.TaskCount,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUserLabor returns one user's daily workload. The policy may be
// given as policy or optimization_param.
func (s *Server) handleUserLabor(w http.ResponseWriter, r *http.Request) {
	userID, err := requireQueryID(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	raw := q.Get("policy")
	if raw == "" {
		raw = q.Get("optimization_param")
	}
	p, err := s.policy(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.analytics.UserDistribution(userID, p, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDistribution(*d))
}

func (s *Server) handleTeamLabor(w http.ResponseWriter, r *http.Request) {
	teamID, err := requireQueryID(r, "team_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := s.analytics.TeamDistribution(teamID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDistributions(ds))
}

type redistributeRequest struct {
	TeamID            int64  `json:"team_id"`
	Policy            string `json:"policy"`
	OptimizationParam string `json:"optimization_param"`
	StartDate         *Date  `json:"start_date"`
	EndDate           *Date  `json:"end_date"`
}

func (s *Server) handleRedistribute(w http.ResponseWriter, r *http.Request) {
	var req redistributeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TeamID <= 0 {
		s.writeError(w, r, badRequest("team_id is required"))
		return
	}
	raw := req.Policy
	if raw == "" {
		raw = req.OptimizationParam
	}
	p, err := s.policy(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start, end, err := s.analytics.Window(dateOrNil(req.StartDate), dateOrNil(req.EndDate))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := s.analytics.Redistribute(req.TeamID, p, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDistributions(ds))
}

func dateOrNil(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
