package analytics

import (
	"time"

	"github.com/sadopc/taskflow/internal/store"
)

// Overview summarizes a team's tasks, or all tasks when the team is nil.
type Overview struct {
	Total    int
	Open     int
	ByStatus []store.StatusCount
	Recent   []store.Task
}

func (s *Service) Overview(teamID *int64, recent int) (*Overview, error) {
	if teamID != nil {
		if _, err := s.store.GetTeam(*teamID); err != nil {
			return nil, err
		}
	}
	counts, err := s.store.StatusCounts(teamID)
	if err != nil {
		return nil, err
	}
	o := &Overview{ByStatus: counts}
	for _, c := range counts {
		o.Total += c.Count
		if store.IsOpen(c.Status) {
			o.Open += c.Count
		}
	}
	if recent > 0 {
		if o.Recent, err = s.store.RecentTasks(teamID, recent); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Breakdown counts a user's tasks starting in the window by priority, size
// and due date.
func (s *Service) Breakdown(userID int64, from, to time.Time) ([]store.TaskBreakdown, error) {
	if _, err := s.store.GetUser(userID); err != nil {
		return nil, err
	}
	return s.store.TaskBreakdown(userID, from, to)
}

// Performance sums planned and actual labor per member of a team.
func (s *Service) Performance(teamID int64, from, to time.Time) ([]store.MemberPerformance, error) {
	if _, err := s.store.GetTeam(teamID); err != nil {
		return nil, err
	}
	return s.store.TeamPerformance(teamID, from, to)
}
