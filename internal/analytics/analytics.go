// Package analytics turns stored tasks into workload views: per-user and
// per-team daily labor distributions, policy-ordered redistribution, and
// summary counts.
package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/store"
)

type Service struct {
	store *store.Store
	now   func() time.Time

	mu         sync.RWMutex
	windowDays int
	policy     labor.Policy
}

func New(s *store.Store, windowDays int, policy labor.Policy) *Service {
	svc := &Service{store: s, now: time.Now}
	svc.SetDefaults(windowDays, policy)
	return svc
}

// SetDefaults changes the window length and policy used when a caller
// leaves them out. Non-positive or unknown values are ignored.
func (s *Service) SetDefaults(windowDays int, policy labor.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if windowDays > 0 && windowDays <= labor.MaxWindowDays {
		s.windowDays = windowDays
	} else if s.windowDays == 0 {
		s.windowDays = 14
	}
	if _, err := labor.ParsePolicy(string(policy)); err == nil {
		s.policy = policy
	} else if s.policy == "" {
		s.policy = labor.ByPriority
	}
}

func (s *Service) DefaultPolicy() labor.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Window fills in a missing bound. With neither bound the window starts
// today; with one bound it extends the default length from it.
func (s *Service) Window(from, to *time.Time) (time.Time, time.Time, error) {
	s.mu.RLock()
	days := s.windowDays
	s.mu.RUnlock()

	var start, end time.Time
	switch {
	case from != nil && to != nil:
		start, end = labor.Day(*from), labor.Day(*to)
	case from != nil:
		start = labor.Day(*from)
		end = start.AddDate(0, 0, days-1)
	case to != nil:
		end = labor.Day(*to)
		start = end.AddDate(0, 0, -(days - 1))
	default:
		start = labor.Day(s.now())
		end = start.AddDate(0, 0, days-1)
	}
	if start.After(end) {
		return start, end, fmt.Errorf("%w: %s is after %s", labor.ErrInvalidWindow, labor.FormatDate(start), labor.FormatDate(end))
	}
	if n := labor.WindowDays(start, end); n > labor.MaxWindowDays {
		return start, end, fmt.Errorf("%w: %d days exceeds the %d day limit", labor.ErrInvalidWindow, n, labor.MaxWindowDays)
	}
	return start, end, nil
}

// UserDistribution returns one user's daily workload, with each day's task
// list in policy order.
func (s *Service) UserDistribution(userID int64, p labor.Policy, from, to time.Time) (*labor.UserDistribution, error) {
	u, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListAssignments(store.TaskFilter{AssigneeID: &userID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	tasks := make([]labor.Task, len(assignments))
	for i, a := range assignments {
		tasks[i] = a.Task
	}
	ordered, err := Prioritize(tasks, p)
	if err != nil {
		return nil, err
	}
	buckets, err := labor.Distribute(ordered, from, to)
	if err != nil {
		return nil, err
	}
	return &labor.UserDistribution{UserID: u.ID, UserName: u.FullName, DailyDistribution: buckets}, nil
}

// TeamDistribution returns the daily workload of everyone working on the
// team's tasks. Members without tasks are included with empty days.
func (s *Service) TeamDistribution(teamID int64, from, to time.Time) ([]labor.UserDistribution, error) {
	assignments, err := s.teamAssignments(teamID, from, to)
	if err != nil {
		return nil, err
	}
	dists, err := labor.DistributeByUser(assignments, from, to)
	if err != nil {
		return nil, err
	}
	return s.withIdleMembers(teamID, dists, from, to)
}

// Redistribute orders each user's team tasks by policy, open work first
// and closed work last, then distributes them.
func (s *Service) Redistribute(teamID int64, p labor.Policy, from, to time.Time) ([]labor.UserDistribution, error) {
	if _, err := labor.ParsePolicy(string(p)); err != nil {
		return nil, err
	}
	assignments, err := s.teamAssignments(teamID, from, to)
	if err != nil {
		return nil, err
	}

	var order []int64
	names := make(map[int64]string)
	byUser := make(map[int64][]labor.Task)
	for _, a := range assignments {
		if _, ok := byUser[a.UserID]; !ok {
			order = append(order, a.UserID)
			names[a.UserID] = a.UserName
		}
		byUser[a.UserID] = append(byUser[a.UserID], a.Task)
	}

	ordered := make([]labor.Assignment, 0, len(assignments))
	for _, id := range order {
		tasks, err := Prioritize(byUser[id], p)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			ordered = append(ordered, labor.Assignment{UserID: id, UserName: names[id], Task: t})
		}
	}

	dists, err := labor.DistributeByUser(ordered, from, to)
	if err != nil {
		return nil, err
	}
	return s.withIdleMembers(teamID, dists, from, to)
}

func (s *Service) teamAssignments(teamID int64, from, to time.Time) ([]labor.Assignment, error) {
	if _, err := s.store.GetTeam(teamID); err != nil {
		return nil, err
	}
	return s.store.ListAssignments(store.TaskFilter{TeamID: &teamID, From: &from, To: &to})
}

func (s *Service) withIdleMembers(teamID int64, dists []labor.UserDistribution, from, to time.Time) ([]labor.UserDistribution, error) {
	members, err := s.store.TeamMembers(teamID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(dists))
	for _, d := range dists {
		seen[d.UserID] = true
	}
	for _, m := range members {
		if seen[m.ID] {
			continue
		}
		empty, err := labor.Distribute(nil, from, to)
		if err != nil {
			return nil, err
		}
		dists = append(dists, labor.UserDistribution{UserID: m.ID, UserName: m.FullName, DailyDistribution: empty})
	}
	return dists, nil
}

// Prioritize orders open tasks by policy followed by closed ones, also in
// policy order.
func Prioritize(tasks []labor.Task, p labor.Policy) ([]labor.Task, error) {
	var open, closed []labor.Task
	for _, t := range tasks {
		if store.IsOpen(t.Status) {
			open = append(open, t)
		} else {
			closed = append(closed, t)
		}
	}
	open, err := labor.Order(open, p)
	if err != nil {
		return nil, err
	}
	closed, err = labor.Order(closed, p)
	if err != nil {
		return nil, err
	}
	return append(open, closed...), nil
}
