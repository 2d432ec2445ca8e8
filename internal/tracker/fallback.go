package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/remote"
	"github.com/christopherklint97/stempel/internal/store"
)

// FallbackStore prefers the remote store and switches to the local one for
// the rest of the process once the remote is unavailable. Nothing written
// locally is synced back.
type FallbackStore struct {
	remote store.Records
	local  store.Records
	logger *slog.Logger

	mu      sync.Mutex
	offline bool
}

var _ store.Records = (*FallbackStore)(nil)

// NewFallbackStore wraps remote and local. A nil remote starts in local mode.
func NewFallbackStore(remote, local store.Records, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FallbackStore{
		remote:  remote,
		local:   local,
		logger:  logger,
		offline: remote == nil,
	}
}

// Offline reports whether calls are going to the local store.
func (f *FallbackStore) Offline() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offline
}

func (f *FallbackStore) goOffline(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return
	}
	f.offline = true
	f.logger.Warn("remote store unavailable, using local database", "op", op, "error", err)
}

func call[T any](f *FallbackStore, op string, fn func(store.Records) (T, error)) (T, error) {
	if !f.Offline() {
		v, err := fn(f.remote)
		if err == nil || !errors.Is(err, remote.ErrUnavailable) {
			return v, err
		}
		f.goOffline(op, err)
	}
	return fn(f.local)
}

func exec(f *FallbackStore, op string, fn func(store.Records) error) error {
	_, err := call(f, op, func(r store.Records) (struct{}, error) {
		return struct{}{}, fn(r)
	})
	return err
}

func (f *FallbackStore) ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	return call(f, "list projects", func(r store.Records) ([]domain.Project, error) {
		return r.ListProjects(ctx, filter)
	})
}

func (f *FallbackStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return call(f, "get project", func(r store.Records) (*domain.Project, error) {
		return r.GetProject(ctx, id)
	})
}

func (f *FallbackStore) CreateProject(ctx context.Context, p *domain.Project) error {
	return exec(f, "create project", func(r store.Records) error {
		return r.CreateProject(ctx, p)
	})
}

func (f *FallbackStore) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	return call(f, "update project", func(r store.Records) (*domain.Project, error) {
		return r.UpdateProject(ctx, id, patch)
	})
}

func (f *FallbackStore) ListTimeEntries(ctx context.Context) ([]domain.TimeEntry, error) {
	return call(f, "list time entries", func(r store.Records) ([]domain.TimeEntry, error) {
		return r.ListTimeEntries(ctx)
	})
}

func (f *FallbackStore) GetTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	return call(f, "get time entry", func(r store.Records) (*domain.TimeEntry, error) {
		return r.GetTimeEntry(ctx, id)
	})
}

func (f *FallbackStore) CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error {
	return exec(f, "create time entry", func(r store.Records) error {
		return r.CreateTimeEntry(ctx, e)
	})
}

func (f *FallbackStore) UpdateTimeEntry(ctx context.Context, id string, patch domain.TimeEntryPatch) (*domain.TimeEntry, error) {
	return call(f, "update time entry", func(r store.Records) (*domain.TimeEntry, error) {
		return r.UpdateTimeEntry(ctx, id, patch)
	})
}

func (f *FallbackStore) DeleteTimeEntry(ctx context.Context, id string) error {
	return exec(f, "delete time entry", func(r store.Records) error {
		return r.DeleteTimeEntry(ctx, id)
	})
}

func (f *FallbackStore) ListTodos(ctx context.Context, status domain.TodoStatus) ([]domain.Todo, error) {
	return call(f, "list todos", func(r store.Records) ([]domain.Todo, error) {
		return r.ListTodos(ctx, status)
	})
}

func (f *FallbackStore) CreateTodo(ctx context.Context, t *domain.Todo) error {
	return exec(f, "create todo", func(r store.Records) error {
		return r.CreateTodo(ctx, t)
	})
}

func (f *FallbackStore) UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (*domain.Todo, error) {
	return call(f, "update todo", func(r store.Records) (*domain.Todo, error) {
		return r.UpdateTodo(ctx, id, patch)
	})
}

func (f *FallbackStore) DeleteTodo(ctx context.Context, id string) error {
	return exec(f, "delete todo", func(r store.Records) error {
		return r.DeleteTodo(ctx, id)
	})
}
