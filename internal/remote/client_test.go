package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/stempel/internal/api"
	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/store"
	"github.com/christopherklint97/stempel/internal/testutil"
)

func noBackoff(int) time.Duration { return 0 }

// newBackedClient runs a real API server over an in-memory store and counts requests.
func newBackedClient(t *testing.T, apiKey string) (*Client, *atomic.Int32) {
	t.Helper()
	db := testutil.NewTestStore(t)
	var hits atomic.Int32
	h := api.New(db, "secret", nil).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", apiKey, time.Minute, nil)
	c.backoff = noBackoff
	return c, &hits
}

func TestClient_RoundTripsRecords(t *testing.T) {
	c, _ := newBackedClient(t, "secret")
	ctx := context.Background()

	p := &domain.Project{Name: "Relaunch", Company: domain.CompanySalescrew}
	require.NoError(t, c.CreateProject(ctx, p))
	require.NotEmpty(t, p.ID)

	start := time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC)
	e := &domain.TimeEntry{Company: p.Company, ProjectID: p.ID, StartTime: start}
	require.NoError(t, c.CreateTimeEntry(ctx, e))
	require.NotEmpty(t, e.ID)

	end := start.Add(2 * time.Hour)
	updated, err := c.UpdateTimeEntry(ctx, e.ID, domain.TimeEntryPatch{EndTime: &end})
	require.NoError(t, err)
	require.NotNil(t, updated.EndTime)
	assert.True(t, end.Equal(*updated.EndTime))

	got, err := c.GetTimeEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ProjectID)

	entries, err := c.ListTimeEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, c.DeleteTimeEntry(ctx, e.ID))
	_, err = c.GetTimeEntry(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClient_TodoNeedsKey(t *testing.T) {
	ctx := context.Background()

	anon, _ := newBackedClient(t, "")
	err := anon.CreateTodo(ctx, &domain.Todo{Title: "Call back"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	c, _ := newBackedClient(t, "secret")
	todo := &domain.Todo{Title: "Call back"}
	require.NoError(t, c.CreateTodo(ctx, todo))

	done := domain.TodoDone
	updated, err := c.UpdateTodo(ctx, todo.ID, domain.TodoPatch{Status: &done})
	require.NoError(t, err)
	assert.NotNil(t, updated.DoneAt)

	open, err := c.ListTodos(ctx, domain.TodoOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	require.NoError(t, c.DeleteTodo(ctx, todo.ID))
}

func TestClient_ValidationErrorsSurviveTransport(t *testing.T) {
	c, _ := newBackedClient(t, "secret")

	err := c.CreateProject(context.Background(), &domain.Project{Name: "x", Company: "acme"})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestClient_ProjectCache(t *testing.T) {
	c, hits := newBackedClient(t, "secret")
	ctx := context.Background()

	require.NoError(t, c.CreateProject(ctx, &domain.Project{Name: "A", Company: domain.CompanyInkognito}))
	require.NoError(t, c.CreateProject(ctx, &domain.Project{Name: "B", Company: domain.CompanySalescrew, Archived: true}))
	before := hits.Load()

	all, err := c.ListProjects(ctx, domain.ProjectFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := c.ListProjects(ctx, domain.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "A", active[0].Name)

	ink, err := c.ListProjects(ctx, domain.ProjectFilter{Company: domain.CompanyInkognito})
	require.NoError(t, err)
	assert.Len(t, ink, 1)
	assert.Equal(t, before+1, hits.Load(), "filtered listings are served from cache")

	name := "A2"
	_, err = c.UpdateProject(ctx, active[0].ID, domain.ProjectPatch{Name: &name})
	require.NoError(t, err)
	renamed, err := c.ListProjects(ctx, domain.ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, "A2", renamed[0].Name)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Minute, nil)
	c.backoff = noBackoff

	entries, err := c.ListTimeEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_CreateNotRetriedAfterServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Minute, nil)
	c.backoff = noBackoff

	e := &domain.TimeEntry{Company: domain.CompanySalescrew, StartTime: time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC)}
	err := c.CreateTimeEntry(context.Background(), e)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CreateRetriedWhenThrottled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"t1","title":"Call supplier","status":"open","priority":"medium"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Minute, nil)
	c.backoff = noBackoff

	todo := &domain.Todo{Title: "Call supplier"}
	require.NoError(t, c.CreateTodo(context.Background(), todo))
	assert.Equal(t, "t1", todo.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_UnavailableAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Minute, nil)
	c.backoff = noBackoff

	_, err := c.ListTimeEntries(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestClient_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Minute, nil)
	c.backoff = noBackoff

	_, err := c.ListTodos(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestClient_StopsRetryingOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Minute, nil)
	c.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ListTimeEntries(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProjectCache_Expires(t *testing.T) {
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	cache := NewProjectCache(time.Minute)
	cache.now = func() time.Time { return now }

	assert.Nil(t, cache.Get())
	cache.Set([]domain.Project{{ID: "p1"}})
	assert.Len(t, cache.Get(), 1)

	now = now.Add(2 * time.Minute)
	assert.Nil(t, cache.Get())

	cache.Set([]domain.Project{})
	assert.NotNil(t, cache.Get())
	cache.Invalidate()
	assert.Nil(t, cache.Get())
}
