package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

// parseDay resolves s to a reference-zone calendar day. It accepts
// YYYY-MM-DD, DD.MM.YYYY and natural phrases such as "yesterday" or
// "last friday"; an empty string is today.
func parseDay(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := stats.Location()
	if s == "" {
		return stats.Day(now), nil
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	t, err := naturaldate.Parse(s, now.In(loc), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
	}
	return stats.Day(t), nil
}

// parseBlock reads "PROJECT=HH:MM-HH:MM", resolving PROJECT against projects.
func parseBlock(s string, projects []domain.Project, homeOffice bool) (tracker.Block, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return tracker.Block{}, fmt.Errorf("block %q must look like PROJECT=09:00-12:30", s)
	}
	from, to, ok := strings.Cut(strings.TrimSpace(s[i+1:]), "-")
	if !ok {
		return tracker.Block{}, fmt.Errorf("block %q must look like PROJECT=09:00-12:30", s)
	}
	p, err := tracker.ResolveProject(projects, s[:i])
	if err != nil {
		return tracker.Block{}, err
	}
	return tracker.Block{
		Project:    *p,
		From:       strings.TrimSpace(from),
		To:         strings.TrimSpace(to),
		HomeOffice: homeOffice,
	}, nil
}
