package labor

import (
	"fmt"
	"time"
)

// Distribute spreads each task's labor evenly across the days it is active
// inside [from, to] and returns one bucket per day of the window, in date
// order. Days no task touches are still present with zero labor.
//
// Each active day receives (planned - actual) / days of remaining planned
// labor and actual / days of actual labor. Overspent tasks yield negative
// remaining labor; it is not clamped.
func Distribute(tasks []Task, from, to time.Time) ([]DailyBucket, error) {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidWindow, FormatDate(from), FormatDate(to))
	}

	buckets := make([]DailyBucket, daysBetween(from, to)+1)
	for i := range buckets {
		buckets[i] = DailyBucket{Date: from.AddDate(0, 0, i), Tasks: []Task{}}
	}

	for _, t := range tasks {
		start, end := Day(t.StartDate), Day(t.CompletionDate)
		if end.Before(start) {
			return nil, fmt.Errorf("%w: task %d completes %s before it starts %s",
				ErrMalformedTask, t.ID, FormatDate(end), FormatDate(start))
		}

		// Clip to the window.
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if start.After(end) {
			continue
		}

		totalDays := daysBetween(start, end) + 1
		var plannedShare, actualShare float64
		if totalDays > 0 {
			plannedShare = (t.PlannedLabor - t.ActualLabor) / float64(totalDays)
			actualShare = t.ActualLabor / float64(totalDays)
		}

		first := daysBetween(from, start)
		for i := first; i < first+totalDays; i++ {
			b := &buckets[i]
			b.PlannedLabor += plannedShare
			b.ActualLabor += actualShare
			b.RemainingLabor = b.PlannedLabor - b.ActualLabor
			b.Tasks = append(b.Tasks, t)
		}
	}

	return buckets, nil
}

// DistributeByUser groups assignments by user, in the order users are first
// seen, and distributes each user's tasks over the same window.
func DistributeByUser(assignments []Assignment, from, to time.Time) ([]UserDistribution, error) {
	if Day(from).After(Day(to)) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidWindow, FormatDate(from), FormatDate(to))
	}

	type group struct {
		name  string
		tasks []Task
	}
	var order []int64
	groups := make(map[int64]*group)
	for _, a := range assignments {
		g, ok := groups[a.UserID]
		if !ok {
			g = &group{name: a.UserName}
			groups[a.UserID] = g
			order = append(order, a.UserID)
		}
		g.tasks = append(g.tasks, a.Task)
	}

	result := make([]UserDistribution, 0, len(order))
	for _, id := range order {
		g := groups[id]
		buckets, err := Distribute(g.tasks, from, to)
		if err != nil {
			return nil, fmt.Errorf("distribute user %d: %w", id, err)
		}
		result = append(result, UserDistribution{
			UserID:            id,
			UserName:          g.name,
			DailyDistribution: buckets,
		})
	}
	return result, nil
}
