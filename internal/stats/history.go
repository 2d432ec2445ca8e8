package stats

import (
	"sort"
	"time"

	"github.com/christopherklint97/stempel/internal/domain"
)

// CompanyTotal is the raw tracked time for one company on one day.
type CompanyTotal struct {
	Company domain.Company
	Seconds int64
}

// DayGroup is a history row: the completed entries of one calendar day.
type DayGroup struct {
	Date            time.Time
	Label           string
	Entries         []domain.TimeEntry
	RawSeconds      int64
	AdjustedSeconds int64
	SickDay         bool
	Companies       []CompanyTotal
}

// History groups completed entries by day, newest day first. Entries within a
// day are ordered by start time and companies follow domain.Companies order.
func History(entries []domain.TimeEntry, now time.Time) []DayGroup {
	byDay := make(map[string][]domain.TimeEntry)
	for _, e := range entries {
		if !e.Completed() {
			continue
		}
		key := Day(e.StartTime).Format(dateLayout)
		byDay[key] = append(byDay[key], e)
	}

	totals := DailyTotals(entries)
	groups := make([]DayGroup, 0, len(totals))
	for i := len(totals) - 1; i >= 0; i-- {
		t := totals[i]
		dayEntries := byDay[t.Date.Format(dateLayout)]
		sort.SliceStable(dayEntries, func(a, b int) bool {
			return dayEntries[a].StartTime.Before(dayEntries[b].StartTime)
		})

		perCompany := make(map[domain.Company]int64)
		for _, e := range dayEntries {
			perCompany[e.Company] += e.Seconds(now)
		}
		var companies []CompanyTotal
		for _, c := range domain.Companies() {
			if secs, ok := perCompany[c]; ok {
				companies = append(companies, CompanyTotal{Company: c, Seconds: secs})
			}
		}

		groups = append(groups, DayGroup{
			Date:            t.Date,
			Label:           DateLabel(t.Date, now),
			Entries:         dayEntries,
			RawSeconds:      t.RawSeconds,
			AdjustedSeconds: t.AdjustedSeconds,
			SickDay:         t.SickDay,
			Companies:       companies,
		})
	}
	return groups
}

// DateLabel names a date relative to now: "Today", "Yesterday" or the weekday.
func DateLabel(date, now time.Time) string {
	day := Day(date)
	today := Day(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Weekday().String()
	}
}
