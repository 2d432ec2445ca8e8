// Package calendar reads and writes iCalendar files.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
)

// Event represents a parsed calendar event.
type Event struct {
	Summary   string
	StartTime time.Time
	EndTime   time.Time
}

// Fetch retrieves and parses iCalendar events from a URL or file path,
// returning events that overlap with the given time window.
func Fetch(ctx context.Context, source string, windowStart, windowEnd time.Time) ([]Event, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(nil)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(nil)
			if err != nil {
				continue
			}

			// Include events that overlap with the window
			if start.Before(windowEnd) && end.After(windowStart) {
				summary, _ := event.Props.Text(ical.PropSummary)
				if summary != "" {
					events = append(events, Event{
						Summary:   summary,
						StartTime: start,
						EndTime:   end,
					})
				}
			}
		}
	}

	return events, nil
}

// GroupByDay groups events by reference-zone date (YYYY-MM-DD).
func GroupByDay(events []Event) map[string][]Event {
	grouped := make(map[string][]Event)
	for _, e := range events {
		key := stats.Day(e.StartTime).Format("2006-01-02")
		grouped[key] = append(grouped[key], e)
	}
	return grouped
}

// Resolver maps an event summary onto a project.
type Resolver func(summary string) (*domain.Project, bool)

// ToEntries turns events into completed time entries. Events sharing a day
// share a session. Events the resolver rejects are returned as skipped.
func ToEntries(events []Event, resolve Resolver) (entries []domain.TimeEntry, skipped []Event) {
	sessions := make(map[string]string)
	for day := range GroupByDay(events) {
		sessions[day] = uuid.NewString()
	}

	for _, ev := range events {
		p, ok := resolve(ev.Summary)
		if !ok || !ev.EndTime.After(ev.StartTime) {
			skipped = append(skipped, ev)
			continue
		}
		end := ev.EndTime.UTC().Truncate(time.Second)
		entries = append(entries, domain.TimeEntry{
			Company:   p.Company,
			ProjectID: p.ID,
			StartTime: ev.StartTime.UTC().Truncate(time.Second),
			EndTime:   &end,
			SessionID: sessions[stats.Day(ev.StartTime).Format("2006-01-02")],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartTime.Before(entries[j].StartTime)
	})
	return entries, skipped
}

var ErrNothingToExport = errors.New("no completed entries to export")

// Export writes every completed entry as a VEVENT. projects names the
// event summaries; unknown projects fall back to the company name.
func Export(w io.Writer, entries []domain.TimeEntry, projects []domain.Project, now time.Time) error {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//stempel//time entries//EN")

	stamp := now.UTC().Truncate(time.Second)
	for _, e := range entries {
		if !e.Completed() {
			continue
		}

		summary := names[e.ProjectID]
		switch {
		case e.IsSickDay:
			summary = "Sick day"
		case summary == "":
			summary = e.Company.DisplayName()
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, e.ID+"@stempel")
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, e.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, e.EndTime.UTC())
		event.Props.SetText(ical.PropSummary, summary)
		event.Props.SetText(ical.PropCategories, e.Company.DisplayName())
		if e.IsHomeOffice {
			event.Props.SetText(ical.PropDescription, "Home office")
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		return ErrNothingToExport
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}
