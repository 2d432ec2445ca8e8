package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/christopherklint97/stempel/internal/domain"
)

const projectColumns = `id, name, company, color, archived, created_at`

func (db *DB) ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	var where []string
	var args []any
	if !filter.IncludeArchived {
		where = append(where, "archived = 0")
	}
	if filter.Company != "" {
		where = append(where, "company = ?")
		args = append(args, string(filter.Company))
	}

	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name COLLATE NOCASE ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (db *DB) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	row := db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// CreateProject inserts p, assigning an ID and creation time when unset.
func (db *DB) CreateProject(ctx context.Context, p *domain.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.ValidationError("project name is required")
	}
	if !p.Company.Valid() {
		return domain.ValidationError(fmt.Sprintf("invalid company %q", p.Company))
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Company), nullableString(p.Color), boolToInt(p.Archived), formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (db *DB) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	var updated domain.Project
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
		if err != nil {
			return err
		}
		updated = patch.Apply(*current)
		if strings.TrimSpace(updated.Name) == "" {
			return domain.ValidationError("project name is required")
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE projects SET name = ?, archived = ? WHERE id = ?`,
			updated.Name, boolToInt(updated.Archived), id,
		)
		if err != nil {
			return fmt.Errorf("updating project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func scanProject(row scanner) (*domain.Project, error) {
	var p domain.Project
	var company, createdStr string
	var color sql.NullString
	var archived int

	if err := row.Scan(&p.ID, &p.Name, &company, &color, &archived, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.Company = domain.Company(company)
	p.Color = color.String
	p.Archived = archived != 0

	created, err := parseTime(createdStr, "created_at")
	if err != nil {
		return nil, err
	}
	p.CreatedAt = created
	return &p, nil
}
