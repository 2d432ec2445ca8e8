package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/christopherklint97/stempel/internal/api"
	"github.com/christopherklint97/stempel/internal/domain"
)

// ListProjects serves from the cache when fresh. The cache holds every
// project, so the filter is applied locally.
func (c *Client) ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	all := c.cache.Get()
	if all == nil {
		if err := c.do(ctx, http.MethodGet, "/api/projects?archived=true", nil, &all, false); err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		c.cache.Set(all)
	}

	var out []domain.Project
	for _, p := range all {
		if filter.Company != "" && p.Company != filter.Company {
			continue
		}
		if p.Archived && !filter.IncludeArchived {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+escape(id), nil, &p, false); err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return &p, nil
}

func (c *Client) CreateProject(ctx context.Context, p *domain.Project) error {
	if err := c.do(ctx, http.MethodPost, "/api/projects", p, p, false); err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	c.cache.Invalidate()
	return nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	var p domain.Project
	req := api.ProjectUpdate{ID: id, ProjectPatch: patch}
	if err := c.do(ctx, http.MethodPatch, "/api/projects", req, &p, false); err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	c.cache.Invalidate()
	return &p, nil
}

func (c *Client) ListTimeEntries(ctx context.Context) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	if err := c.do(ctx, http.MethodGet, "/api/time-entries", nil, &entries, false); err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	return entries, nil
}

func (c *Client) GetTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	if err := c.do(ctx, http.MethodGet, "/api/time-entries/"+escape(id), nil, &e, false); err != nil {
		return nil, fmt.Errorf("getting time entry: %w", err)
	}
	return &e, nil
}

func (c *Client) CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error {
	if err := c.do(ctx, http.MethodPost, "/api/time-entries", e, e, false); err != nil {
		return fmt.Errorf("creating time entry: %w", err)
	}
	return nil
}

func (c *Client) UpdateTimeEntry(ctx context.Context, id string, patch domain.TimeEntryPatch) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	req := api.TimeEntryUpdate{ID: id, TimeEntryPatch: patch}
	if err := c.do(ctx, http.MethodPatch, "/api/time-entries", req, &e, false); err != nil {
		return nil, fmt.Errorf("updating time entry: %w", err)
	}
	return &e, nil
}

func (c *Client) DeleteTimeEntry(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/time-entries", api.DeleteRequest{ID: id}, nil, false); err != nil {
		return fmt.Errorf("deleting time entry: %w", err)
	}
	return nil
}

func (c *Client) ListTodos(ctx context.Context, status domain.TodoStatus) ([]domain.Todo, error) {
	path := "/api/todos"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var todos []domain.Todo
	if err := c.do(ctx, http.MethodGet, path, nil, &todos, false); err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

// CreateTodo is the one write guarded by the API key.
func (c *Client) CreateTodo(ctx context.Context, t *domain.Todo) error {
	if err := c.do(ctx, http.MethodPost, "/api/todos", t, t, true); err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	return nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (*domain.Todo, error) {
	var t domain.Todo
	req := api.TodoUpdate{ID: id, TodoPatch: patch}
	if err := c.do(ctx, http.MethodPatch, "/api/todos", req, &t, false); err != nil {
		return nil, fmt.Errorf("updating todo: %w", err)
	}
	return &t, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/todos", api.DeleteRequest{ID: id}, nil, false); err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	return nil
}
