package labor

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func task(id int64, start, end string, planned, actual float64) Task {
	return Task{
		ID:             id,
		StartDate:      date(start),
		CompletionDate: date(end),
		PlannedLabor:   planned,
		ActualLabor:    actual,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ============================================================
// Distribute
// ============================================================

func TestDistributeCompleteWindow(t *testing.T) {
	buckets, err := Distribute(nil, date("2024-02-27"), date("2024-03-02"))
	if err != nil {
		t.Fatal(err)
	}
	// 2024 is a leap year: 27, 28, 29 Feb, 1, 2 Mar.
	if len(buckets) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(buckets))
	}
	for i, b := range buckets {
		want := date("2024-02-27").AddDate(0, 0, i)
		if !b.Date.Equal(want) {
			t.Fatalf("bucket %d date = %s, want %s", i, FormatDate(b.Date), FormatDate(want))
		}
		if b.PlannedLabor != 0 || b.ActualLabor != 0 || b.RemainingLabor != 0 {
			t.Fatalf("bucket %d should be zero: %+v", i, b)
		}
		if b.Tasks == nil || len(b.Tasks) != 0 {
			t.Fatalf("bucket %d should have an empty task list", i)
		}
	}
}

func TestDistributeLongWindow(t *testing.T) {
	from, to := date("1700-01-01"), date("2300-01-01")
	buckets, err := Distribute([]Task{task(1, "2200-01-01", "2200-01-03", 6, 0)}, from, to)
	if err != nil {
		t.Fatal(err)
	}
	want := int(to.AddDate(0, 0, 1).Unix()-from.Unix()) / 86400
	if len(buckets) != want {
		t.Fatalf("expected %d buckets, got %d", want, len(buckets))
	}
	if !buckets[len(buckets)-1].Date.Equal(to) {
		t.Fatalf("last bucket = %s, want %s", FormatDate(buckets[len(buckets)-1].Date), FormatDate(to))
	}
	var planned float64
	for _, b := range buckets {
		planned += b.PlannedLabor
		if len(b.Tasks) > 0 && FormatDate(b.Date)[:4] != "2200" {
			t.Fatalf("task landed on %s", FormatDate(b.Date))
		}
	}
	if !approx(planned, 6) {
		t.Fatalf("planned sum = %v, want 6", planned)
	}
}

func TestDistributeScenarioA(t *testing.T) {
	tasks := []Task{task(1, "2024-01-01", "2024-01-02", 10, 4)}
	buckets, err := Distribute(tasks, date("2024-01-01"), date("2024-01-03"))
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	for _, b := range buckets[:2] {
		if !approx(b.PlannedLabor, 3) || !approx(b.ActualLabor, 2) || !approx(b.RemainingLabor, 1) {
			t.Fatalf("unexpected bucket %s: %+v", FormatDate(b.Date), b)
		}
		if len(b.Tasks) != 1 || b.Tasks[0].ID != 1 {
			t.Fatalf("bucket %s should list task 1", FormatDate(b.Date))
		}
	}
	last := buckets[2]
	if last.PlannedLabor != 0 || last.ActualLabor != 0 || len(last.Tasks) != 0 {
		t.Fatalf("day 3 should be empty: %+v", last)
	}
}

func TestDistributeScenarioBSumsOverlaps(t *testing.T) {
	tasks := []Task{
		task(1, "2024-01-01", "2024-01-02", 4, 0),
		task(2, "2024-01-02", "2024-01-02", 3, 1),
	}
	buckets, err := Distribute(tasks, date("2024-01-01"), date("2024-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	day2 := buckets[1]
	// task 1: 2 planned/day; task 2: 2 planned, 1 actual on its only day.
	if !approx(day2.PlannedLabor, 4) {
		t.Fatalf("planned = %v, want 4", day2.PlannedLabor)
	}
	if !approx(day2.ActualLabor, 1) {
		t.Fatalf("actual = %v, want 1", day2.ActualLabor)
	}
	if !approx(day2.RemainingLabor, 3) {
		t.Fatalf("remaining = %v, want 3", day2.RemainingLabor)
	}
	if len(day2.Tasks) != 2 || day2.Tasks[0].ID != 1 || day2.Tasks[1].ID != 2 {
		t.Fatalf("tasks should keep input order: %+v", day2.Tasks)
	}
}

func TestDistributeScenarioDSingleDayEmpty(t *testing.T) {
	buckets, err := Distribute([]Task{}, date("2024-05-05"), date("2024-05-05"))
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if b.PlannedLabor != 0 || b.ActualLabor != 0 || b.RemainingLabor != 0 || len(b.Tasks) != 0 {
		t.Fatalf("expected zero bucket, got %+v", b)
	}
}

func TestDistributeConservation(t *testing.T) {
	const planned, actual = 17.5, 6.25
	tasks := []Task{task(1, "2024-03-03", "2024-03-09", planned, actual)}
	buckets, err := Distribute(tasks, date("2024-03-01"), date("2024-03-31"))
	if err != nil {
		t.Fatal(err)
	}
	var sumPlanned, sumActual float64
	touched := 0
	for _, b := range buckets {
		sumPlanned += b.PlannedLabor
		sumActual += b.ActualLabor
		if len(b.Tasks) > 0 {
			touched++
		}
	}
	if touched != 7 {
		t.Fatalf("task should touch 7 days, touched %d", touched)
	}
	if !approx(sumPlanned, planned-actual) {
		t.Fatalf("planned sum = %v, want %v", sumPlanned, planned-actual)
	}
	if !approx(sumActual, actual) {
		t.Fatalf("actual sum = %v, want %v", sumActual, actual)
	}
}

func TestDistributeClipsPartialOverlap(t *testing.T) {
	// 4 active days in the window out of a 10-day task.
	tasks := []Task{task(1, "2024-01-01", "2024-01-10", 8, 0)}
	buckets, err := Distribute(tasks, date("2024-01-07"), date("2024-01-12"))
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range buckets {
		inside := i < 4
		if inside {
			if !approx(b.PlannedLabor, 2) || len(b.Tasks) != 1 {
				t.Fatalf("day %s: want 2h and one task, got %+v", FormatDate(b.Date), b)
			}
		} else if b.PlannedLabor != 0 || len(b.Tasks) != 0 {
			t.Fatalf("day %s should be untouched, got %+v", FormatDate(b.Date), b)
		}
	}
}

func TestDistributeTaskOutsideWindow(t *testing.T) {
	tasks := []Task{
		task(1, "2023-12-01", "2023-12-31", 5, 1),
		task(2, "2024-02-01", "2024-02-03", 5, 1),
	}
	buckets, err := Distribute(tasks, date("2024-01-01"), date("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range buckets {
		if b.PlannedLabor != 0 || b.ActualLabor != 0 || len(b.Tasks) != 0 {
			t.Fatalf("no task should contribute, got %+v", b)
		}
	}
}

func TestDistributeOverspentGoesNegative(t *testing.T) {
	tasks := []Task{task(1, "2024-01-01", "2024-01-02", 2, 6)}
	buckets, err := Distribute(tasks, date("2024-01-01"), date("2024-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range buckets {
		if !approx(b.PlannedLabor, -2) || !approx(b.ActualLabor, 3) || !approx(b.RemainingLabor, -5) {
			t.Fatalf("overspent bucket not carried through: %+v", b)
		}
	}
}

func TestDistributeIgnoresTimeOfDay(t *testing.T) {
	tk := Task{
		ID:             1,
		StartDate:      time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC),
		CompletionDate: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		PlannedLabor:   4,
	}
	buckets, err := Distribute([]Task{tk}, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), date("2024-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if !approx(buckets[0].PlannedLabor, 2) || !approx(buckets[1].PlannedLabor, 2) {
		t.Fatalf("unexpected split: %v / %v", buckets[0].PlannedLabor, buckets[1].PlannedLabor)
	}
}

func TestDistributeIdempotent(t *testing.T) {
	tasks := []Task{
		task(1, "2024-01-01", "2024-01-04", 12, 3),
		task(2, "2024-01-03", "2024-01-08", 6, 6),
	}
	a, err := Distribute(tasks, date("2024-01-01"), date("2024-01-06"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Distribute(tasks, date("2024-01-01"), date("2024-01-06"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("repeated calls should produce identical output")
	}
}

func TestDistributeInvalidWindow(t *testing.T) {
	_, err := Distribute(nil, date("2024-01-02"), date("2024-01-01"))
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestDistributeMalformedTask(t *testing.T) {
	tasks := []Task{task(9, "2024-01-05", "2024-01-01", 1, 0)}
	_, err := Distribute(tasks, date("2024-01-01"), date("2024-01-31"))
	if !errors.Is(err, ErrMalformedTask) {
		t.Fatalf("expected ErrMalformedTask, got %v", err)
	}
}

// ============================================================
// DistributeByUser
// ============================================================

func TestDistributeByUserGroupsInEncounterOrder(t *testing.T) {
	assignments := []Assignment{
		{UserID: 7, UserName: "Zeynep", Task: task(1, "2024-01-01", "2024-01-01", 2, 0)},
		{UserID: 3, UserName: "Ali", Task: task(2, "2024-01-02", "2024-01-02", 4, 1)},
		{UserID: 7, UserName: "Zeynep", Task: task(3, "2024-01-01", "2024-01-02", 2, 0)},
	}
	result, err := DistributeByUser(assignments, date("2024-01-01"), date("2024-01-03"))
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 users, got %d", len(result))
	}
	if result[0].UserID != 7 || result[0].UserName != "Zeynep" || result[1].UserID != 3 {
		t.Fatalf("unexpected user order: %d, %d", result[0].UserID, result[1].UserID)
	}
	for _, ud := range result {
		if len(ud.DailyDistribution) != 3 {
			t.Fatalf("user %d: expected 3 buckets, got %d", ud.UserID, len(ud.DailyDistribution))
		}
	}

	z := result[0].DailyDistribution
	if !approx(z[0].PlannedLabor, 3) || len(z[0].Tasks) != 2 {
		t.Fatalf("user 7 day 1: %+v", z[0])
	}
	if !approx(z[1].PlannedLabor, 1) || len(z[1].Tasks) != 1 {
		t.Fatalf("user 7 day 2: %+v", z[1])
	}

	a := result[1].DailyDistribution
	if a[0].PlannedLabor != 0 || !approx(a[1].PlannedLabor, 3) || !approx(a[1].ActualLabor, 1) {
		t.Fatalf("user 3 buckets wrong: %+v", a)
	}
}

func TestDistributeByUserEmpty(t *testing.T) {
	result, err := DistributeByUser(nil, date("2024-01-01"), date("2024-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 0 {
		t.Fatalf("expected no users, got %d", len(result))
	}
}

func TestDistributeByUserPropagatesErrors(t *testing.T) {
	_, err := DistributeByUser(nil, date("2024-01-02"), date("2024-01-01"))
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}

	bad := []Assignment{{UserID: 1, Task: task(1, "2024-01-03", "2024-01-01", 1, 0)}}
	_, err = DistributeByUser(bad, date("2024-01-01"), date("2024-01-05"))
	if !errors.Is(err, ErrMalformedTask) {
		t.Fatalf("expected ErrMalformedTask, got %v", err)
	}
}
