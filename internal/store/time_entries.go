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

const entryColumns = `id, company, start_time, end_time, session_id, project_id, is_sick_day, is_home_office, created_at`

// ListTimeEntries returns every entry, newest start first.
func (db *DB) ListTimeEntries(ctx context.Context) ([]domain.TimeEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries ORDER BY start_time DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying time entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (db *DB) GetTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	row := db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// CreateTimeEntry inserts e, assigning ID, session and creation time when unset.
func (db *DB) CreateTimeEntry(ctx context.Context, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SessionID == "" {
		e.SessionID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Company), formatTime(e.StartTime), formatNullableTime(e.EndTime),
		e.SessionID, nullableString(e.ProjectID), boolToInt(e.IsSickDay), boolToInt(e.IsHomeOffice),
		formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (db *DB) UpdateTimeEntry(ctx context.Context, id string, patch domain.TimeEntryPatch) (*domain.TimeEntry, error) {
	var updated domain.TimeEntry
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id))
		if err != nil {
			return err
		}
		updated = patch.Apply(*current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE time_entries SET start_time = ?, end_time = ?, project_id = ?, is_home_office = ? WHERE id = ?`,
			formatTime(updated.StartTime), formatNullableTime(updated.EndTime),
			nullableString(updated.ProjectID), boolToInt(updated.IsHomeOffice), id,
		)
		if err != nil {
			return fmt.Errorf("updating time entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (db *DB) DeleteTimeEntry(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting time entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("time entry: %w", ErrNotFound)
	}
	return nil
}

func scanEntry(row scanner) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	var company, startStr, createdStr string
	var endStr, projectID sql.NullString
	var sick, homeOffice int

	err := row.Scan(&e.ID, &company, &startStr, &endStr, &e.SessionID, &projectID, &sick, &homeOffice, &createdStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("time entry: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning time entry: %w", err)
	}

	e.Company = domain.Company(company)
	e.ProjectID = projectID.String
	e.IsSickDay = sick != 0
	e.IsHomeOffice = homeOffice != 0

	if e.StartTime, err = parseTime(startStr, "start_time"); err != nil {
		return nil, err
	}
	if e.EndTime, err = parseNullableTime(endStr, "end_time"); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdStr, "created_at"); err != nil {
		return nil, err
	}
	return &e, nil
}
