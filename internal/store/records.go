package store

import (
	"context"

	"github.com/christopherklint97/stempel/internal/domain"
)

// Records is the record store contract: CRUD over projects, time entries and
// todos. It is implemented by DB and by the remote HTTP client.
type Records interface {
	ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (*domain.Project, error)

	ListTimeEntries(ctx context.Context) ([]domain.TimeEntry, error)
	GetTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error
	UpdateTimeEntry(ctx context.Context, id string, patch domain.TimeEntryPatch) (*domain.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id string) error

	ListTodos(ctx context.Context, status domain.TodoStatus) ([]domain.Todo, error)
	CreateTodo(ctx context.Context, t *domain.Todo) error
	UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

var _ Records = (*DB)(nil)

// State is a small key-value store for client preferences such as the last
// selected project. It always lives in the local database.
type State interface {
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
}

var _ State = (*DB)(nil)
