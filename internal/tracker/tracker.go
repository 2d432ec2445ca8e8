// Package tracker drives the timer, backfills and todos on top of a record store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/store"
)

var (
	ErrAlreadyRunning = errors.New("a timer is already running")
	ErrNotRunning     = errors.New("no timer is running")
)

// StateLastProject is the state key holding the last selected project id.
const StateLastProject = "last_project_id"

type Tracker struct {
	records store.Records
	state   store.State
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New builds a tracker. state may be nil, in which case selections are not remembered.
func New(records store.Records, state store.State, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &Tracker{
		records: records,
		state:   state,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) clock() time.Time {
	return t.now().UTC().Truncate(time.Second)
}

// Snapshot is everything the dashboard renders.
type Snapshot struct {
	Now            time.Time
	Entries        []domain.TimeEntry
	Projects       []domain.Project // archived included, for name lookups
	OpenTodos      []domain.Todo
	DoneTodos      []domain.Todo
	Running        *domain.TimeEntry
	RunningProject *domain.Project
	Elapsed        int64
	Summary        stats.Summary
	Offline        bool
	LastProjectID  string
}

// ActiveProjects drops archived projects.
func (s *Snapshot) ActiveProjects() []domain.Project {
	var out []domain.Project
	for _, p := range s.Projects {
		if !p.Archived {
			out = append(out, p)
		}
	}
	return out
}

// Project looks a project up by id.
func (s *Snapshot) Project(id string) *domain.Project {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i]
		}
	}
	return nil
}

func (t *Tracker) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := t.clock()

	entries, err := t.records.ListTimeEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading time entries: %w", err)
	}
	projects, err := t.records.ListProjects(ctx, domain.ProjectFilter{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	todos, err := t.records.ListTodos(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("loading todos: %w", err)
	}

	snap := &Snapshot{
		Now:      now,
		Entries:  entries,
		Projects: projects,
		Offline:  t.Offline(),
	}
	for _, todo := range todos {
		if todo.Status == domain.TodoDone {
			snap.DoneTodos = append(snap.DoneTodos, todo)
		} else {
			snap.OpenTodos = append(snap.OpenTodos, todo)
		}
	}

	snap.Running = running(entries)
	if snap.Running != nil {
		snap.Elapsed = snap.Running.Seconds(now)
		snap.RunningProject = snap.Project(snap.Running.ProjectID)
	}
	snap.Summary = stats.Compute(entries, now, snap.Elapsed)
	snap.LastProjectID = t.lastProject(ctx)

	return snap, nil
}

// Offline reports whether the underlying store has fallen back to local mode.
func (t *Tracker) Offline() bool {
	if o, ok := t.records.(interface{ Offline() bool }); ok {
		return o.Offline()
	}
	return false
}

// running returns the open entry with the latest start.
func running(entries []domain.TimeEntry) *domain.TimeEntry {
	var open *domain.TimeEntry
	for i := range entries {
		e := entries[i]
		if e.EndTime != nil {
			continue
		}
		if open == nil || e.StartTime.After(open.StartTime) {
			open = &e
		}
	}
	return open
}

func (t *Tracker) current(ctx context.Context) (*domain.TimeEntry, error) {
	entries, err := t.records.ListTimeEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading time entries: %w", err)
	}
	return running(entries), nil
}

// Start opens a new entry for project in a fresh session.
func (t *Tracker) Start(ctx context.Context, project domain.Project, homeOffice bool) (*domain.TimeEntry, error) {
	open, err := t.current(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyRunning
	}

	e := &domain.TimeEntry{
		Company:      project.Company,
		ProjectID:    project.ID,
		StartTime:    t.clock(),
		SessionID:    uuid.NewString(),
		IsHomeOffice: homeOffice,
	}
	if err := t.records.CreateTimeEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("starting timer: %w", err)
	}
	t.remember(ctx, project.ID)

	t.logger.Info("timer started", "project", project.Name, "company", project.Company, "entry", e.ID)
	return e, nil
}

// Stop closes the running entry at now.
func (t *Tracker) Stop(ctx context.Context) (*domain.TimeEntry, error) {
	open, err := t.current(ctx)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNotRunning
	}

	end := t.clock()
	if end.Before(open.StartTime) {
		end = open.StartTime
	}
	stopped, err := t.records.UpdateTimeEntry(ctx, open.ID, domain.TimeEntryPatch{EndTime: &end})
	if err != nil {
		return nil, fmt.Errorf("stopping timer: %w", err)
	}

	t.logger.Info("timer stopped", "entry", stopped.ID, "seconds", stopped.Seconds(end))
	return stopped, nil
}

// Switch moves a running timer to project, keeping the session. Without a
// running timer it only remembers the selection and returns nil.
func (t *Tracker) Switch(ctx context.Context, project domain.Project) (*domain.TimeEntry, error) {
	open, err := t.current(ctx)
	if err != nil {
		return nil, err
	}
	t.remember(ctx, project.ID)
	if open == nil {
		return nil, nil
	}
	if open.ProjectID == project.ID {
		return open, nil
	}

	now := t.clock()
	end := now
	if end.Before(open.StartTime) {
		end = open.StartTime
	}
	if _, err := t.records.UpdateTimeEntry(ctx, open.ID, domain.TimeEntryPatch{EndTime: &end}); err != nil {
		return nil, fmt.Errorf("closing current entry: %w", err)
	}

	next := &domain.TimeEntry{
		Company:      project.Company,
		ProjectID:    project.ID,
		StartTime:    end,
		SessionID:    open.SessionID,
		IsHomeOffice: open.IsHomeOffice,
	}
	if err := t.records.CreateTimeEntry(ctx, next); err != nil {
		return nil, fmt.Errorf("opening entry for %s: %w", project.Name, err)
	}

	t.logger.Info("timer switched", "project", project.Name, "session", next.SessionID)
	return next, nil
}

// LastProject returns the remembered project id, or "".
func (t *Tracker) LastProject(ctx context.Context) string {
	return t.lastProject(ctx)
}

func (t *Tracker) lastProject(ctx context.Context) string {
	if t.state == nil {
		return ""
	}
	id, err := t.state.GetState(ctx, StateLastProject)
	if err != nil {
		t.logger.Warn("reading last project", "error", err)
		return ""
	}
	return id
}

func (t *Tracker) remember(ctx context.Context, projectID string) {
	if t.state == nil || projectID == "" {
		return
	}
	if err := t.state.SetState(ctx, StateLastProject, projectID); err != nil {
		t.logger.Warn("saving last project", "error", err)
	}
}
