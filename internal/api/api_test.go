package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/store"
)

type testEnv struct {
	t     *testing.T
	srv   *Server
	store *store.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	svc := analytics.New(st, 7, labor.ByPriority)
	return &testEnv{t: t, srv: New(st, svc, logx.Nop(), opts), store: st}
}

// do sends a request and decodes a JSON response into out when non-nil.
func (e *testEnv) do(method, path string, body any, out any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			e.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func (e *testEnv) expect(rec *httptest.ResponseRecorder, code int) {
	e.t.Helper()
	if rec.Code != code {
		e.t.Fatalf("status = %d, want %d; body %s", rec.Code, code, rec.Body.String())
	}
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

// seed creates a team with two members and returns their IDs.
func (e *testEnv) seed() (teamID, aliID, ayseID int64) {
	e.t.Helper()
	var team teamJSON
	e.expect(e.do("POST", "/api/teams", map[string]any{"name": "Platform"}, &team), http.StatusCreated)
	var ali, ayse userJSON
	e.expect(e.do("POST", "/api/users", map[string]any{
		"full_name": "Ali Demir", "username": "ali", "team_id": team.ID,
	}, &ali), http.StatusCreated)
	e.expect(e.do("POST", "/api/users", map[string]any{
		"full_name": "Ayse Kaya", "username": "ayse", "role": "manager", "team_id": team.ID,
	}, &ayse), http.StatusCreated)
	return team.ID, ali.ID, ayse.ID
}

// ============================================================
// Users & teams
// ============================================================

func TestHealth(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do("GET", "/api/health", nil, nil)
	e.expect(rec, http.StatusOK)
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("request ID header missing")
	}
}

func TestUserLifecycle(t *testing.T) {
	e := newTestEnv(t, Options{})
	teamID, aliID, _ := e.seed()

	var users []userJSON
	e.expect(e.do("GET", "/api/users", nil, &users), http.StatusOK)
	if len(users) != 2 || users[0].FullName != "Ali Demir" {
		t.Fatalf("unexpected users: %+v", users)
	}

	var got userJSON
	e.expect(e.do("PUT", "/api/users/"+itoa(aliID), map[string]any{
		"full_name": "Ali D.", "email": "ali@example.com", "role": "admin", "team_id": teamID,
	}, &got), http.StatusOK)
	if got.FullName != "Ali D." || got.Role != "admin" {
		t.Fatalf("update failed: %+v", got)
	}

	e.expect(e.do("DELETE", "/api/users/"+itoa(aliID), nil, nil), http.StatusNoContent)
	rec := e.do("GET", "/api/users/"+itoa(aliID), nil, nil)
	e.expect(rec, http.StatusNotFound)
	if !strings.Contains(detail(t, rec), "not found") {
		t.Fatalf("detail = %q", detail(t, rec))
	}
}

func TestCreateUserValidation(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.expect(e.do("POST", "/api/users", map[string]any{"username": "x"}, nil), http.StatusBadRequest)
	e.expect(e.do("POST", "/api/users", map[string]any{"full_name": "X", "username": "x", "role": "root"}, nil), http.StatusBadRequest)
	e.expect(e.do("POST", "/api/users", `{"full_name":"X","username":"x","extra":1}`, nil), http.StatusBadRequest)
	e.expect(e.do("POST", "/api/users", map[string]any{"full_name": "X", "username": "x"}, nil), http.StatusCreated)
	e.expect(e.do("POST", "/api/users", map[string]any{"full_name": "Y", "username": "x"}, nil), http.StatusConflict)
	e.expect(e.do("POST", "/api/users", map[string]any{"full_name": "Z", "username": "z", "team_id": 99}, nil), http.StatusBadRequest)
}

func TestBadPathID(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.expect(e.do("GET", "/api/users/abc", nil, nil), http.StatusBadRequest)
	e.expect(e.do("GET", "/api/tasks/0", nil, nil), http.StatusBadRequest)
}

func TestTeamDeleteConflict(t *testing.T) {
	e := newTestEnv(t, Options{})
	teamID, _, _ := e.seed()

	var members []userJSON
	e.expect(e.do("GET", "/api/teams/"+itoa(teamID)+"/members", nil, &members), http.StatusOK)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	rec := e.do("DELETE", "/api/teams/"+itoa(teamID), nil, nil)
	e.expect(rec, http.StatusConflict)

	var empty teamJSON
	e.expect(e.do("POST", "/api/teams", map[string]any{"name": "Empty"}, &empty), http.StatusCreated)
	e.expect(e.do("DELETE", "/api/teams/"+itoa(empty.ID), nil, nil), http.StatusNoContent)
	e.expect(e.do("DELETE", "/api/teams/"+itoa(empty.ID), nil, nil), http.StatusNotFound)
}

// ============================================================
// Tasks
// ============================================================

func TestTaskLifecycle(t *testing.T) {
	e := newTestEnv(t, Options{})
	teamID, aliID, ayseID := e.seed()

	var task taskJSON
	e.expect(e.do("POST", "/api/tasks", map[string]any{
		"description":     "Migrate billing",
		"priority":        "High",
		"start_date":      "2024-01-01",
		"completion_date": "2024-01-04",
		"planned_labor":   16,
		"work_size":       3,
		"creator_id":      ayseID,
		"team_id":         teamID,
		"assignees": []map[string]any{
			{"user_id": aliID, "planned_labor": 12},
			{"user_id": ayseID, "planned_labor": 4},
		},
	}, &task), http.StatusCreated)

	if task.Status != store.StatusNotStarted || len(task.Assignees) != 2 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if labor.FormatDate(task.StartDate.Time) != "2024-01-01" {
		t.Fatalf("start date = %v", task.StartDate)
	}

	// The creator is not notified about their own task.
	n, _ := e.store.UnreadCount(aliID)
	m, _ := e.store.UnreadCount(ayseID)
	if n != 1 || m != 0 {
		t.Fatalf("notifications: ali=%d ayse=%d", n, m)
	}

	// Partial update keeps omitted fields.
	var updated taskJSON
	e.expect(e.do("PUT", "/api/tasks/"+itoa(task.ID), map[string]any{
		"status": "In Progress", "changed_by": aliID,
	}, &updated), http.StatusOK)
	if updated.Status != "In Progress" || updated.Description != "Migrate billing" || len(updated.Assignees) != 2 {
		t.Fatalf("partial update lost data: %+v", updated)
	}

	e.expect(e.do("PATCH", "/api/tasks/"+itoa(task.ID)+"/status", map[string]any{"status": "Paused"}, &updated), http.StatusOK)
	if updated.Status != "Paused" {
		t.Fatalf("status = %q", updated.Status)
	}
	e.expect(e.do("PATCH", "/api/tasks/"+itoa(task.ID)+"/status", map[string]any{"status": "Done"}, nil), http.StatusBadRequest)

	e.expect(e.do("POST", "/api/tasks/"+itoa(task.ID)+"/effort", map[string]any{
		"user_id": aliID, "hours": 3, "note": "schema",
	}, &updated), http.StatusOK)
	if updated.ActualLabor != 3 {
		t.Fatalf("actual labor = %v", updated.ActualLabor)
	}

	var history []taskLogJSON
	e.expect(e.do("GET", "/api/tasks/"+itoa(task.ID)+"/history", nil, &history), http.StatusOK)
	if len(history) != 4 || history[len(history)-1].Description != "Task created" {
		t.Fatalf("unexpected history: %+v", history)
	}

	var assignees []assigneeJSON
	e.expect(e.do("GET", "/api/tasks/"+itoa(task.ID)+"/assignees", nil, &assignees), http.StatusOK)
	if len(assignees) != 2 || assignees[0].ActualLabor != 3 {
		t.Fatalf("unexpected assignees: %+v", assignees)
	}

	var mine []taskJSON
	e.expect(e.do("GET", "/api/users/"+itoa(aliID)+"/tasks", nil, &mine), http.StatusOK)
	if len(mine) != 1 {
		t.Fatalf("expected 1 task for ali, got %d", len(mine))
	}

	e.expect(e.do("DELETE", "/api/tasks/"+itoa(task.ID), nil, nil), http.StatusNoContent)
	e.expect(e.do("GET", "/api/tasks/"+itoa(task.ID), nil, nil), http.StatusNotFound)
}

func TestCreateTaskValidation(t *testing.T) {
	e := newTestEnv(t, Options{})
	_, aliID, _ := e.seed()
	base := func() map[string]any {
		return map[string]any{
			"description": "x", "start_date": "2024-01-02", "completion_date": "2024-01-03",
		}
	}

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		code   int
	}{
		{"ok", func(m map[string]any) {}, http.StatusCreated},
		{"missing description", func(m map[string]any) { delete(m, "description") }, http.StatusBadRequest},
		{"bad priority", func(m map[string]any) { m["priority"] = "Urgent" }, http.StatusBadRequest},
		{"bad status", func(m map[string]any) { m["status"] = "Done" }, http.StatusBadRequest},
		{"bad date", func(m map[string]any) { m["start_date"] = "02/01/2024" }, http.StatusBadRequest},
		{"ends before start", func(m map[string]any) { m["completion_date"] = "2024-01-01" }, http.StatusBadRequest},
		{"negative labor", func(m map[string]any) { m["planned_labor"] = -1 }, http.StatusBadRequest},
		{"zero work size", func(m map[string]any) { m["work_size"] = 0 }, http.StatusBadRequest},
		{"duplicate assignee", func(m map[string]any) {
			m["assignees"] = []map[string]any{{"user_id": aliID}, {"user_id": aliID}}
		}, http.StatusBadRequest},
		{"unknown assignee", func(m map[string]any) {
			m["assignees"] = []map[string]any{{"user_id": 999}}
		}, http.StatusBadRequest},
		{"timestamp dates", func(m map[string]any) { m["start_date"] = "2024-01-02T10:00:00Z" }, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := base()
			tt.mutate(body)
			rec := e.do("POST", "/api/tasks", body, nil)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.code, rec.Body.String())
			}
		})
	}
}

func TestListTasksQuery(t *testing.T) {
	e := newTestEnv(t, Options{})
	teamID, aliID, _ := e.seed()
	e.do("POST", "/api/tasks", map[string]any{
		"description": "a", "priority": "Low", "team_id": teamID,
		"start_date": "2024-01-01", "completion_date": "2024-01-02",
		"assignees": []map[string]any{{"user_id": aliID}},
	}, nil)
	e.do("POST", "/api/tasks", map[string]any{
		"description": "b", "priority": "High",
		"start_date": "2024-02-01", "completion_date": "2024-02-02",
	}, nil)

	var tasks []taskJSON
	e.expect(e.do("GET", "/api/tasks?team_id="+itoa(teamID), nil, &tasks), http.StatusOK)
	if len(tasks) != 1 || tasks[0].Description != "a" {
		t.Fatalf("team filter: %+v", tasks)
	}
	e.expect(e.do("GET", "/api/tasks?priority=High", nil, &tasks), http.StatusOK)
	if len(tasks) != 1 || tasks[0].Description != "b" {
		t.Fatalf("priority filter: %+v", tasks)
	}
	e.expect(e.do("GET", "/api/tasks?start_date=2024-01-15&end_date=2024-03-01", nil, &tasks), http.StatusOK)
	if len(tasks) != 1 || tasks[0].Description != "b" {
		t.Fatalf("window filter: %+v", tasks)
	}
	e.expect(e.do("GET", "/api/tasks?status=Done", nil, nil), http.StatusBadRequest)
	e.expect(e.do("GET", "/api/tasks?start_date=yesterday", nil, nil), http.StatusBadRequest)

	e.expect(e.do("GET", "/api/tasks?team_id=999", nil, &tasks), http.StatusOK)
	if tasks == nil || len(tasks) != 0 {
		t.Fatal("empty result should be an empty array")
	}
}

// ============================================================
// Notifications
// ============================================================

func TestNotificationsEndpoints(t *testing.T) {
	e := newTestEnv(t, Options{})
	_, aliID, ayseID := e.seed()

	var n notificationJSON
	e.expect(e.do("POST", "/api/notifications", map[string]any{
		"sender_user_id": ayseID, "receiver_user_id": aliID, "type": "task_updated", "message": "ping",
	}, &n), http.StatusCreated)
	e.expect(e.do("POST", "/api/notifications", map[string]any{
		"receiver_user_id": aliID, "type": "spam",
	}, nil), http.StatusBadRequest)
	e.do("POST", "/api/notifications", map[string]any{"receiver_user_id": aliID, "type": "overdue"}, nil)

	var count map[string]int
	e.expect(e.do("GET", "/api/notifications/unread-count?user_id="+itoa(aliID), nil, &count), http.StatusOK)
	if count["count"] != 2 {
		t.Fatalf("count = %v", count)
	}

	var read notificationJSON
	e.expect(e.do("PUT", "/api/notifications/"+itoa(n.ID)+"/read", nil, &read), http.StatusOK)
	if !read.IsRead {
		t.Fatal("notification should be read")
	}

	var list []notificationJSON
	e.expect(e.do("GET", "/api/notifications?user_id="+itoa(aliID)+"&unread=true", nil, &list), http.StatusOK)
	if len(list) != 1 || list[0].Type != "overdue" {
		t.Fatalf("unread list: %+v", list)
	}

	var updated map[string]int64
	e.expect(e.do("PUT", "/api/notifications/read-all", map[string]any{"user_id": aliID}, &updated), http.StatusOK)
	if updated["updated"] != 1 {
		t.Fatalf("updated = %v", updated)
	}

	e.expect(e.do("GET", "/api/notifications", nil, nil), http.StatusBadRequest)
	e.expect(e.do("PUT", "/api/notifications/999/read", nil, nil), http.StatusNotFound)
}

// ============================================================
// Analytics
// ============================================================

func seedLabor(e *testEnv) (teamID, aliID, ayseID int64) {
	teamID, aliID, ayseID = e.seed()
	e.expect(e.do("POST", "/api/tasks", map[string]any{
		"description": "low", "priority": "Low", "work_size": 5, "team_id": teamID,
		"start_date": "2024-01-01", "completion_date": "2024-01-04",
		"assignees": []map[string]any{{"user_id": aliID, "planned_labor": 8, "actual_labor": 4}},
	}, nil), http.StatusCreated)
	e.expect(e.do("POST", "/api/tasks", map[string]any{
		"description": "high", "priority": "High", "work_size": 1, "team_id": teamID,
		"start_date": "2024-01-02", "completion_date": "2024-01-03",
		"assignees": []map[string]any{{"user_id": aliID, "planned_labor": 4}},
	}, nil), http.StatusCreated)
	return
}

func TestUserLaborEndpoint(t *testing.T) {
	e := newTestEnv(t, Options{})
	_, aliID, _ := seedLabor(e)

	var d distributionJSON
	e.expect(e.do("GET", "/api/analytics/labor?user_id="+itoa(aliID)+"&start_date=2024-01-01&end_date=2024-01-05", nil, &d), http.StatusOK)
	if d.UserName != "Ali Demir" || len(d.DailyDistribution) != 5 {
		t.Fatalf("unexpected distribution: %+v", d)
	}
	jan2 := d.DailyDistribution[1]
	if labor.FormatDate(jan2.Date.Time) != "2024-01-02" {
		t.Fatalf("bucket date = %v", jan2.Date)
	}
	// low: 1/day planned, 1/day actual; high: 2/day planned.
	if jan2.PlannedLabor != 3 || jan2.ActualLabor != 1 || jan2.RemainingLabor != 2 {
		t.Fatalf("jan 2 = %+v", jan2)
	}
	if len(jan2.Tasks) != 2 || jan2.Tasks[0].Description != "high" {
		t.Fatalf("priority order expected: %+v", jan2.Tasks)
	}
	last := d.DailyDistribution[4]
	if last.PlannedLabor != 0 || last.Tasks == nil {
		t.Fatal("untouched day should be zero with an empty task list")
	}

	// Legacy endpoint name and its user_id parameter.
	e.expect(e.do("GET", "/api/analytics/user-detailed-distribution?user_id="+itoa(aliID)+
		"&start_date=2024-01-01&end_date=2024-01-05&optimization_param=work_size", nil, &d), http.StatusOK)
	if d.DailyDistribution[1].Tasks[0].Description != "low" {
		t.Fatal("work_size policy should put the larger task first")
	}
}

func TestLaborEndpointErrors(t *testing.T) {
	e := newTestEnv(t, Options{})
	_, aliID, _ := seedLabor(e)
	id := itoa(aliID)

	rec := e.do("GET", "/api/analytics/labor?user_id="+id+"&start_date=2024-02-01&end_date=2024-01-01", nil, nil)
	e.expect(rec, http.StatusBadRequest)
	if !strings.Contains(detail(t, rec), "invalid window") {
		t.Fatalf("detail = %q", detail(t, rec))
	}
	e.expect(e.do("GET", "/api/analytics/labor?user_id="+id+"&policy=random", nil, nil), http.StatusBadRequest)
	e.expect(e.do("GET", "/api/analytics/labor", nil, nil), http.StatusBadRequest)
	e.expect(e.do("GET", "/api/analytics/labor?user_id=999", nil, nil), http.StatusNotFound)
}

func TestTeamLaborAndRedistribute(t *testing.T) {
	e := newTestEnv(t, Options{})
	teamID, aliID, ayseID := seedLabor(e)

	var ds []distributionJSON
	e.expect(e.do("GET", "/api/analytics/labor/team?team_id="+itoa(teamID)+"&start_date=2024-01-01&end_date=2024-01-04", nil, &ds), http.StatusOK)
	if len(ds) != 2 || ds[0].UserID != aliID || ds[1].UserID != ayseID {
		t.Fatalf("unexpected team distribution: %+v", ds)
	}

	e.expect(e.do("POST", "/api/analytics/redistribute", map[string]any{
		"team_id": teamID, "policy": "work_size", "start_date": "2024-01-01", "end_date": "2024-01-04",
	}, &ds), http.StatusOK)
	if ds[0].DailyDistribution[1].Tasks[0].Description != "low" {
		t.Fatal("redistribute should order by work size")
	}

	e.expect(e.do("POST", "/api/analytics/optimize-task-distribution", map[string]any{
		"team_id": teamID, "optimization_param": "priority", "start_date": "2024-01-01", "end_date": "2024-01-04",
	}, &ds), http.StatusOK)
	if ds[0].DailyDistribution[1].Tasks[0].Description != "high" {
		t.Fatal("optimization_param should select the policy")
	}

	e.expect(e.do("POST", "/api/analytics/redistribute", map[string]any{"team_id": teamID, "policy": "x"}, nil), http.StatusBadRequest)
	e.expect(e.do("POST", "/api/analytics/redistribute", map[string]any{"policy": "priority"}, nil), http.StatusBadRequest)
	e.expect(e.do("POST", "/api/analytics/redistribute", map[string]any{"team_id": 999}, nil), http.StatusNotFound)
}

func TestReportEndpoints(t *testing.T) {
	e := newTestEnv(t, Options{})
	teamID, aliID, _ := seedLabor(e)

	var breakdown []breakdownJSON
	e.expect(e.do("GET", "/api/analytics/user-task-distribution?user_id="+itoa(aliID)+"&start_date=2024-01-01&end_date=2024-01-31", nil, &breakdown), http.StatusOK)
	if len(breakdown) != 2 {
		t.Fatalf("breakdown: %+v", breakdown)
	}

	var perf []performanceJSON
	e.expect(e.do("GET", "/api/analytics/performance?team_id="+itoa(teamID)+"&start_date=2024-01-01&end_date=2024-01-31", nil, &perf), http.StatusOK)
	if len(perf) != 1 || perf[0].TotalPlanned != 12 || perf[0].TotalActual != 4 {
		t.Fatalf("performance: %+v", perf)
	}

	var o overviewJSON
	e.expect(e.do("GET", "/api/analytics/overview?team_id="+itoa(teamID), nil, &o), http.StatusOK)
	if o.Total != 2 || o.Open != 2 || o.ByStatus["Not Started"] != 2 || len(o.Recent) != 2 {
		t.Fatalf("overview: %+v", o)
	}
}

// ============================================================
// Middleware
// ============================================================

func TestRequestIDPropagates(t *testing.T) {
	e := newTestEnv(t, Options{})
	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request ID = %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	e := newTestEnv(t, Options{RatePerSec: 0.001, Burst: 2})
	for i := 0; i < 2; i++ {
		e.expect(e.do("GET", "/api/health", nil, nil), http.StatusOK)
	}
	rec := e.do("GET", "/api/health", nil, nil)
	e.expect(rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After should be set")
	}

	e.srv.Apply(Options{})
	e.expect(e.do("GET", "/api/health", nil, nil), http.StatusOK)
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest("OPTIONS", "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatal("allow-origin missing")
	}

	req = httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin should not be allowed")
	}
}

func TestAccessLogWritesJSON(t *testing.T) {
	st, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	var buf bytes.Buffer
	srv := New(st, analytics.New(st, 7, labor.ByPriority), logx.NewJSON(&buf, "info"), Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/42", nil))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if line["status"] != float64(404) || line["path"] != "/api/users/42" || line["level"] != "warn" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if line["request_id"] == "" {
		t.Fatal("request_id missing")
	}
}

func TestDateJSON(t *testing.T) {
	b, _ := json.Marshal(Date{time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC)})
	if string(b) != `"2024-02-29"` {
		t.Fatalf("marshal = %s", b)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-13-01"`), &d); err == nil {
		t.Fatal("invalid month should fail")
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
