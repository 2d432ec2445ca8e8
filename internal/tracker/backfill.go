package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
)

// Block is one span of a backfilled day. From and To are "HH:MM" wall-clock
// times in the reference zone.
type Block struct {
	Project    domain.Project
	From       string
	To         string
	HomeOffice bool
}

// Sick days are recorded as a fixed 08:00-16:00 span.
const (
	sickFrom = "08:00"
	sickTo   = "16:00"
)

// Backfill records completed blocks on date. All blocks are validated before
// anything is written and share one session id.
func (t *Tracker) Backfill(ctx context.Context, date time.Time, blocks []Block) ([]domain.TimeEntry, error) {
	if len(blocks) == 0 {
		return nil, domain.ValidationError("at least one block is required")
	}

	session := uuid.NewString()
	entries := make([]domain.TimeEntry, 0, len(blocks))
	for i, b := range blocks {
		start, end, err := span(date, b.From, b.To)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		if b.Project.ID == "" {
			return nil, domain.ValidationError(fmt.Sprintf("block %d: project is required", i+1))
		}
		entries = append(entries, domain.TimeEntry{
			Company:      b.Project.Company,
			ProjectID:    b.Project.ID,
			StartTime:    start,
			EndTime:      &end,
			SessionID:    session,
			IsHomeOffice: b.HomeOffice,
		})
	}

	for i := range entries {
		if err := t.records.CreateTimeEntry(ctx, &entries[i]); err != nil {
			return entries[:i], fmt.Errorf("saving block %d: %w", i+1, err)
		}
	}
	t.remember(ctx, blocks[len(blocks)-1].Project.ID)

	t.logger.Info("day backfilled", "date", stats.Day(date).Format("2006-01-02"), "blocks", len(entries))
	return entries, nil
}

// SickDay records a completed sick entry for company on date.
func (t *Tracker) SickDay(ctx context.Context, date time.Time, company domain.Company) (*domain.TimeEntry, error) {
	if !company.Valid() {
		return nil, domain.ValidationError(fmt.Sprintf("invalid company %q", company))
	}
	start, end, err := span(date, sickFrom, sickTo)
	if err != nil {
		return nil, err
	}

	e := &domain.TimeEntry{
		Company:   company,
		StartTime: start,
		EndTime:   &end,
		SessionID: uuid.NewString(),
		IsSickDay: true,
	}
	if err := t.records.CreateTimeEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("recording sick day: %w", err)
	}

	t.logger.Info("sick day recorded", "date", stats.Day(date).Format("2006-01-02"), "company", company)
	return e, nil
}

// span resolves from/to on the calendar date of day in the reference zone.
func span(day time.Time, from, to string) (time.Time, time.Time, error) {
	fh, fm, err := ParseClock(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	th, tm, err := ParseClock(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	loc := stats.Location()
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, fh, fm, 0, 0, loc)
	end := time.Date(y, m, d, th, tm, 0, 0, loc)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, domain.ValidationError(fmt.Sprintf("%s must be before %s", from, to))
	}
	return start.UTC(), end.UTC(), nil
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (int, int, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, domain.ValidationError(fmt.Sprintf("invalid time %q: expected HH:MM", s))
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, domain.ValidationError(fmt.Sprintf("invalid hour in %q", s))
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 || len(ms) != 2 {
		return 0, 0, domain.ValidationError(fmt.Sprintf("invalid minute in %q", s))
	}
	return h, m, nil
}
