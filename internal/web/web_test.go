package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/desktop-weekly-planner/internal/db"
	"github.com/williampepple1/desktop-weekly-planner/internal/logging"
	"github.com/williampepple1/desktop-weekly-planner/internal/model"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
)

const testWeek = "2024-01-01"

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, err := db.Open(":memory:")
	require.NoError(t, err)
	store := db.NewStore(sqlDB)
	t.Cleanup(func() {
		_ = store.Close()
	})

	server := NewServer(planner.NewService(store, logging.Discard()), logging.Discard())
	server.now = func() time.Time { return time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) }
	return server, server.Handler()
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func createTask(t *testing.T, handler http.Handler, body string) string {
	t.Helper()
	w := do(t, handler, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func affectedOf(t *testing.T, w *httptest.ResponseRecorder) int64 {
	t.Helper()
	var resp struct {
		Affected int64 `json:"affected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Affected
}

func TestCreateAndListTasks(t *testing.T) {
	_, handler := newTestServer(t)

	id := createTask(t, handler, `{"title":"Standup","day":"monday","status":"todo","priority":"low","week_id":"2024-01-01"}`)

	w := do(t, handler, http.MethodGet, "/api/weeks/"+testWeek+"/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)

	var tasks []model.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].ID)
	assert.Equal(t, model.PriorityLow, tasks[0].Priority)
	assert.Equal(t, tasks[0].CreatedAt, tasks[0].UpdatedAt)
}

func TestEmptyWeekReturnsEmptyArray(t *testing.T) {
	_, handler := newTestServer(t)

	w := do(t, handler, http.MethodGet, "/api/weeks/2030-01-07/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	_, handler := newTestServer(t)

	w := do(t, handler, http.MethodPost, "/api/tasks", `{"title":"x","day":"someday","week_id":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid day")

	w = do(t, handler, http.MethodPost, "/api/tasks", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskNotFound(t *testing.T) {
	_, handler := newTestServer(t)

	w := do(t, handler, http.MethodGet, "/api/tasks/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchStatusDayAndDelete(t *testing.T) {
	_, handler := newTestServer(t)
	id := createTask(t, handler, `{"title":"Review","day":"tuesday","week_id":"2024-01-01"}`)

	w := do(t, handler, http.MethodPatch, "/api/tasks/"+id, `{"title":"Review PRs","priority":"high"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), affectedOf(t, w))

	w = do(t, handler, http.MethodPut, "/api/tasks/"+id+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), affectedOf(t, w))

	w = do(t, handler, http.MethodPut, "/api/tasks/"+id+"/day", `{"day":"thursday"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, handler, http.MethodGet, "/api/tasks/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "Review PRs", task.Title)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, model.Thursday, task.Day)
	assert.True(t, task.UpdatedAt.After(task.CreatedAt))

	w = do(t, handler, http.MethodDelete, "/api/tasks/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), affectedOf(t, w))

	w = do(t, handler, http.MethodDelete, "/api/tasks/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), affectedOf(t, w))
}

func TestStatusRejectsUnknownValue(t *testing.T) {
	_, handler := newTestServer(t)
	id := createTask(t, handler, `{"title":"Gym","day":"friday","week_id":"2024-01-01"}`)

	w := do(t, handler, http.MethodPut, "/api/tasks/"+id+"/status", `{"status":"done"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, handler, http.MethodPut, "/api/tasks/"+id+"/day", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeekBoardDefaultsToCurrentWeek(t *testing.T) {
	_, handler := newTestServer(t)
	createTask(t, handler, `{"title":"Plan the week","day":"monday","week_id":"2024-01-01"}`)

	w := do(t, handler, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Jan 1 - Jan 7, 2024")
	assert.Contains(t, body, "Plan the week")
	assert.Contains(t, body, "Sunday")
	assert.Contains(t, body, "/?week=2024-01-08")

	w = do(t, handler, http.MethodGet, "/?week=2024-01-02", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type unknownDayStore struct {
	planner.TaskStore
}

func (s unknownDayStore) ListTasksForWeek(ctx context.Context, weekID string) ([]model.Task, error) {
	tasks, err := s.TaskStore.ListTasksForWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	return append(tasks, model.Task{ID: "legacy", Title: "Legacy row", Day: "someday", WeekID: weekID}), nil
}

func TestWeekBoardTotalMatchesShownTasks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sqlDB, err := db.Open(":memory:")
	require.NoError(t, err)
	store := db.NewStore(sqlDB)
	t.Cleanup(func() {
		_ = store.Close()
	})

	svc := planner.NewService(unknownDayStore{TaskStore: store}, logging.Discard())
	handler := NewServer(svc, logging.Discard()).Handler()
	createTask(t, handler, `{"title":"Plan the week","day":"monday","week_id":"2024-01-01"}`)

	w := do(t, handler, http.MethodGet, "/?week=2024-01-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "1 tasks")
	assert.NotContains(t, body, "Legacy row")
}

func TestHealthAndMetrics(t *testing.T) {
	_, handler := newTestServer(t)
	do(t, handler, http.MethodGet, "/api/weeks/"+testWeek+"/tasks", "")

	w := do(t, handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "planner_operations_total")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf strings.Builder
	r := gin.New()
	r.Use(RequestLogger(logging.New(&buf, slog.LevelDebug)))
	r.GET("/ping", func(c *gin.Context) {
		if _, ok := c.Get(requestIDKey); !ok {
			t.Fatalf("request_id not set in context")
		}
		c.String(http.StatusOK, "pong")
	})

	w := do(t, r, http.MethodGet, "/ping", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
	assert.Contains(t, buf.String(), "http_request")
	assert.Contains(t, buf.String(), "path=/ping")
}
