package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/christopherklint97/stempel/internal/domain"
)

// Project options
type ProjectOption func(*domain.Project)

func WithCompany(c domain.Company) ProjectOption {
	return func(p *domain.Project) {
		p.Company = c
	}
}

func Archived() ProjectOption {
	return func(p *domain.Project) {
		p.Archived = true
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	p := &domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Company:   domain.CompanyMerchandising,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TimeEntry options
type EntryOption func(*domain.TimeEntry)

func WithProject(p *domain.Project) EntryOption {
	return func(e *domain.TimeEntry) {
		e.ProjectID = p.ID
		e.Company = p.Company
	}
}

func WithEntryCompany(c domain.Company) EntryOption {
	return func(e *domain.TimeEntry) {
		e.Company = c
	}
}

func Sick() EntryOption {
	return func(e *domain.TimeEntry) {
		e.IsSickDay = true
	}
}

func HomeOffice() EntryOption {
	return func(e *domain.TimeEntry) {
		e.IsHomeOffice = true
	}
}

// Open leaves the entry running.
func Open() EntryOption {
	return func(e *domain.TimeEntry) {
		e.EndTime = nil
	}
}

// NewTestEntry returns a completed entry spanning start..start+d.
func NewTestEntry(start time.Time, d time.Duration, opts ...EntryOption) *domain.TimeEntry {
	end := start.Add(d)
	e := &domain.TimeEntry{
		ID:        uuid.NewString(),
		Company:   domain.CompanyMerchandising,
		StartTime: start,
		EndTime:   &end,
		SessionID: uuid.NewString(),
		CreatedAt: start,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Todo options
type TodoOption func(*domain.Todo)

func WithPriority(p domain.TodoPriority) TodoOption {
	return func(t *domain.Todo) {
		t.Priority = p
	}
}

func Done(at time.Time) TodoOption {
	return func(t *domain.Todo) {
		t.Status = domain.TodoDone
		t.DoneAt = &at
	}
}

func NewTestTodo(title string, opts ...TodoOption) *domain.Todo {
	t := &domain.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  domain.PriorityMedium,
		Project:   domain.TodoProjectOther,
		Status:    domain.TodoOpen,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
