package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/store"
	"github.com/christopherklint97/stempel/internal/testutil"
)

const testKey = "test-key"

func newTestServer(t *testing.T) (*httptest.Server, *store.DB) {
	t.Helper()
	db := testutil.NewTestStore(t)
	now := func() time.Time { return time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(New(db, testKey, nil, WithClock(now)).Handler())
	t.Cleanup(srv.Close)
	return srv, db
}

func do(t *testing.T, method, url string, body any, header ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProjects_CreateListArchive(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/projects", map[string]string{"name": "Relaunch", "company": "salescrew"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[domain.Project](t, resp)
	assert.NotEmpty(t, created.ID)

	resp = do(t, http.MethodPost, srv.URL+"/api/projects", map[string]string{"name": "Audit", "company": "inkognito"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/projects?company=salescrew", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]domain.Project](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Relaunch", list[0].Name)

	archived := true
	resp = do(t, http.MethodPatch, srv.URL+"/api/projects", ProjectUpdate{ID: created.ID, ProjectPatch: domain.ProjectPatch{Archived: &archived}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[domain.Project](t, resp).Archived)

	resp = do(t, http.MethodGet, srv.URL+"/api/projects", nil)
	assert.Len(t, decodeBody[[]domain.Project](t, resp), 1)

	resp = do(t, http.MethodGet, srv.URL+"/api/projects?archived=true", nil)
	assert.Len(t, decodeBody[[]domain.Project](t, resp), 2)
}

func TestProjects_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/projects", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[ErrorResponse](t, resp).Error, "required")

	resp = do(t, http.MethodPost, srv.URL+"/api/projects", map[string]string{"name": "x", "company": "acme"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/projects?company=acme", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	name := "y"
	resp = do(t, http.MethodPatch, srv.URL+"/api/projects", ProjectUpdate{ID: "missing", ProjectPatch: domain.ProjectPatch{Name: &name}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTimeEntries_Flow(t *testing.T) {
	srv, _ := newTestServer(t)

	start := time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)
	resp := do(t, http.MethodPost, srv.URL+"/api/time-entries", map[string]any{
		"company": "merchandising", "start_time": start, "is_home_office": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[domain.TimeEntry](t, resp)
	assert.Nil(t, created.EndTime)
	assert.NotEmpty(t, created.SessionID)

	end := start.Add(3 * time.Hour)
	resp = do(t, http.MethodPatch, srv.URL+"/api/time-entries", TimeEntryUpdate{ID: created.ID, TimeEntryPatch: domain.TimeEntryPatch{EndTime: &end}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[domain.TimeEntry](t, resp)
	require.NotNil(t, updated.EndTime)
	assert.True(t, end.Equal(*updated.EndTime))

	resp = do(t, http.MethodGet, srv.URL+"/api/time-entries/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	early := start.Add(-time.Hour)
	resp = do(t, http.MethodPatch, srv.URL+"/api/time-entries", TimeEntryUpdate{ID: created.ID, TimeEntryPatch: domain.TimeEntryPatch{EndTime: &early}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/time-entries", DeleteRequest{ID: created.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[SuccessResponse](t, resp).Success)

	resp = do(t, http.MethodDelete, srv.URL+"/api/time-entries", DeleteRequest{ID: created.ID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/time-entries", nil)
	assert.Empty(t, decodeBody[[]domain.TimeEntry](t, resp))
}

func TestTimeEntries_RejectsBadBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/time-entries", map[string]any{"company": "merchandising"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/time-entries", bytes.NewBufferString("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/time-entries", DeleteRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTodos_CreateRequiresKey(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]string{"title": "Reply to Anna", "priority": "high"}

	resp := do(t, http.MethodPost, srv.URL+"/api/todos", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/todos", body, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/todos", body, "Authorization", "Bearer "+testKey)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	todo := decodeBody[domain.Todo](t, resp)
	assert.Equal(t, domain.PriorityHigh, todo.Priority)
	assert.Equal(t, domain.TodoProjectOther, todo.Project)
	assert.Equal(t, domain.TodoOpen, todo.Status)
}

func TestTodos_DoneReopenDelete(t *testing.T) {
	srv, db := newTestServer(t)
	todo := testutil.NewTestTodo("Invoice")
	require.NoError(t, db.CreateTodo(context.Background(), todo))

	done := domain.TodoDone
	resp := do(t, http.MethodPatch, srv.URL+"/api/todos", TodoUpdate{ID: todo.ID, TodoPatch: domain.TodoPatch{Status: &done}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, decodeBody[domain.Todo](t, resp).DoneAt)

	resp = do(t, http.MethodGet, srv.URL+"/api/todos?status=open", nil)
	assert.Empty(t, decodeBody[[]domain.Todo](t, resp))
	resp = do(t, http.MethodGet, srv.URL+"/api/todos?status=done", nil)
	assert.Len(t, decodeBody[[]domain.Todo](t, resp), 1)
	resp = do(t, http.MethodGet, srv.URL+"/api/todos?status=later", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	open := domain.TodoOpen
	resp = do(t, http.MethodPatch, srv.URL+"/api/todos", TodoUpdate{ID: todo.ID, TodoPatch: domain.TodoPatch{Status: &open}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decodeBody[domain.Todo](t, resp).DoneAt)

	resp = do(t, http.MethodDelete, srv.URL+"/api/todos", DeleteRequest{ID: todo.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[SuccessResponse](t, resp).Success)
}

func TestStats_IncludesLive(t *testing.T) {
	srv, db := newTestServer(t)
	// Tuesday 3 March 2026, 08:00-12:00 Vienna.
	e := testutil.NewTestEntry(time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC), 4*time.Hour)
	require.NoError(t, db.CreateTimeEntry(context.Background(), e))

	resp := do(t, http.MethodGet, srv.URL+"/api/stats?live=600", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decodeBody[stats.Summary](t, resp)
	assert.Equal(t, int64(14400), sum.TotalSeconds)
	assert.Equal(t, int64(14400), sum.KWSeconds)
	assert.Equal(t, int64(stats.WeeklyTarget-14400-600), sum.ToGoSeconds)
	assert.Equal(t, 10, sum.ISOWeek)

	resp = do(t, http.MethodGet, srv.URL+"/api/stats?live=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNoStore_Returns503(t *testing.T) {
	srv := httptest.NewServer(New(nil, testKey, nil).Handler())
	defer srv.Close()

	resp := do(t, http.MethodGet, srv.URL+"/api/projects", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
