package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/christopherklint97/stempel/internal/domain"
)

const todoColumns = `id, title, description, source_email_from, source_email_subject, priority, project, prompt, status, done_at, created_at`

// ListTodos returns todos newest first. An empty status lists all of them.
func (db *DB) ListTodos(ctx context.Context, status domain.TodoStatus) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	var todos []domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (db *DB) CreateTodo(ctx context.Context, t *domain.Todo) error {
	if err := t.Normalize(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, nullableString(t.Description), nullableString(t.SourceEmailFrom),
		nullableString(t.SourceEmailSubject), string(t.Priority), t.Project, nullableString(t.Prompt),
		string(t.Status), formatNullableTime(t.DoneAt), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting todo: %w", err)
	}
	return nil
}

func (db *DB) UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (*domain.Todo, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.ValidationError(fmt.Sprintf("invalid status %q", *patch.Status))
	}

	var updated domain.Todo
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanTodo(tx.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id))
		if err != nil {
			return err
		}
		updated = patch.Apply(*current, time.Now().UTC().Truncate(time.Second))
		_, err = tx.ExecContext(ctx,
			`UPDATE todos SET status = ?, done_at = ?, prompt = ? WHERE id = ?`,
			string(updated.Status), formatNullableTime(updated.DoneAt), nullableString(updated.Prompt), id,
		)
		if err != nil {
			return fmt.Errorf("updating todo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (db *DB) DeleteTodo(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("todo: %w", ErrNotFound)
	}
	return nil
}

func scanTodo(row scanner) (*domain.Todo, error) {
	var t domain.Todo
	var description, from, subject, prompt, doneStr sql.NullString
	var priority, status, createdStr string

	err := row.Scan(&t.ID, &t.Title, &description, &from, &subject, &priority, &t.Project, &prompt, &status, &doneStr, &createdStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("todo: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning todo: %w", err)
	}

	t.Description = description.String
	t.SourceEmailFrom = from.String
	t.SourceEmailSubject = subject.String
	t.Prompt = prompt.String
	t.Priority = domain.TodoPriority(priority)
	t.Status = domain.TodoStatus(status)

	if t.DoneAt, err = parseNullableTime(doneStr, "done_at"); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdStr, "created_at"); err != nil {
		return nil, err
	}
	return &t, nil
}
