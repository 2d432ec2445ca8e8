package tracker

import (
	"context"
	"fmt"

	"github.com/christopherklint97/stempel/internal/domain"
)

// ToggleTodo flips todo between open and done.
func (t *Tracker) ToggleTodo(ctx context.Context, todo domain.Todo) (*domain.Todo, error) {
	next := domain.TodoDone
	if todo.Status == domain.TodoDone {
		next = domain.TodoOpen
	}
	patch := domain.TodoPatch{Status: &next}
	if next == domain.TodoDone {
		at := t.clock()
		patch.DoneAt = &at
	}

	updated, err := t.records.UpdateTodo(ctx, todo.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("updating todo: %w", err)
	}
	return updated, nil
}

func (t *Tracker) DeleteTodo(ctx context.Context, id string) error {
	if err := t.records.DeleteTodo(ctx, id); err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	return nil
}

func (t *Tracker) AddTodo(ctx context.Context, todo *domain.Todo) error {
	if err := todo.Normalize(); err != nil {
		return err
	}
	if err := t.records.CreateTodo(ctx, todo); err != nil {
		return fmt.Errorf("adding todo: %w", err)
	}
	t.logger.Info("todo added", "title", todo.Title, "priority", todo.Priority)
	return nil
}
