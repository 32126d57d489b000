package labor

import (
	"fmt"
	"sort"
	"strings"
)

// Policy selects how tasks are ranked before work is handed out.
type Policy string

const (
	ByPriority       Policy = "priority"
	ByWorkSize       Policy = "work_size"
	ByCompletionDate Policy = "completion_date"
)

// Policies lists every supported policy in display order.
var Policies = []Policy{ByPriority, ByWorkSize, ByCompletionDate}

// ParsePolicy maps a policy key to a Policy.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ByPriority, ByWorkSize, ByCompletionDate:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// priorityRank returns 0 for High, 1 for Medium, 2 for Low and 3 for
// anything else.
func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Order returns a sorted copy of tasks. Ties on the policy key fall back to
// the earlier start date, then to input order.
func Order(tasks []Task, p Policy) ([]Task, error) {
	var less func(a, b Task) (bool, bool)
	switch p {
	case ByPriority:
		less = func(a, b Task) (bool, bool) {
			ra, rb := priorityRank(a.Priority), priorityRank(b.Priority)
			return ra < rb, ra == rb
		}
	case ByWorkSize:
		less = func(a, b Task) (bool, bool) {
			return a.WorkSize > b.WorkSize, a.WorkSize == b.WorkSize
		}
	case ByCompletionDate:
		less = func(a, b Task) (bool, bool) {
			ca, cb := Day(a.CompletionDate), Day(b.CompletionDate)
			return ca.Before(cb), ca.Equal(cb)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, string(p))
	}

	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if lt, eq := less(out[i], out[j]); !eq {
			return lt
		}
		return Day(out[i].StartDate).Before(Day(out[j].StartDate))
	})
	return out, nil
}
