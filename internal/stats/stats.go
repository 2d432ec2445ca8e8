// Package stats turns time entries into day buckets, weekly totals and the
// overtime balance. Every function here is pure: results depend only on the
// arguments, so callers may share entry slices across goroutines.
package stats

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/christopherklint97/stempel/internal/domain"
)

const (
	// PauseSeconds is the unpaid break deducted once from a long day.
	PauseSeconds int64 = 1800
	// PauseThreshold is the raw day length at which the break is deducted.
	PauseThreshold int64 = 21600
	// WeeklyTarget is the contractual net working time per ISO week (38h30m).
	WeeklyTarget int64 = 138600
	// SickDaySeconds is the fixed credit for a day containing a sick-day entry.
	SickDaySeconds int64 = 28800
	// InitialOvertimeCarry is overtime accrued before tracking started (43h).
	InitialOvertimeCarry int64 = 154800
)

// ReferenceZone decides which calendar day and week an entry belongs to.
const ReferenceZone = "Europe/Vienna"

const dateLayout = "2006-01-02"

var location = mustLoadLocation(ReferenceZone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("loading time zone %s: %v", name, err))
	}
	return loc
}

// Location returns the reference time zone.
func Location() *time.Location {
	return location
}

// Summary is the aggregated view over the full entry history at one instant.
type Summary struct {
	TotalSeconds           int64     `json:"total_seconds"`
	ISOYear                int       `json:"iso_year"`
	ISOWeek                int       `json:"iso_week"`
	WeekStart              time.Time `json:"week_start"`
	WeekEnd                time.Time `json:"week_end"`
	KWSeconds              int64     `json:"kw_seconds"`
	AvgPerDaySeconds       int64     `json:"avg_per_day_seconds"`
	ToGoSeconds            int64     `json:"to_go_seconds"`
	OvertimeBalanceSeconds int64     `json:"overtime_balance_seconds"`
}

// DayTotal is one calendar day (reference zone) of completed entries.
type DayTotal struct {
	Date            time.Time
	RawSeconds      int64
	AdjustedSeconds int64
	SickDay         bool
	Entries         int
}

// Day returns local midnight of the reference-zone calendar day containing t.
func Day(t time.Time) time.Time {
	l := t.In(location)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, location)
}

// WeekStart returns Monday 00:00 of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return time.Date(d.Year(), d.Month(), d.Day()-offset, 0, 0, 0, 0, location)
}

// AdjustDay applies the day rules to a raw total: sick days are worth a fixed
// credit, long days lose one pause, and Sundays count double.
func AdjustDay(rawSeconds int64, sickDay bool, weekday time.Weekday) int64 {
	if sickDay {
		return SickDaySeconds
	}
	adjusted := max(rawSeconds, 0)
	if adjusted >= PauseThreshold {
		adjusted = max(adjusted-PauseSeconds, 0)
	}
	if weekday == time.Sunday {
		adjusted *= 2
	}
	return adjusted
}

// DailyTotals groups completed entries by reference-zone start date and
// returns one bucket per date, oldest first. Open entries are ignored.
func DailyTotals(entries []domain.TimeEntry) []DayTotal {
	buckets := make(map[string]DayTotal)
	for _, e := range entries {
		if !e.Completed() {
			continue
		}
		date := Day(e.StartTime)
		key := date.Format(dateLayout)
		b, ok := buckets[key]
		if !ok {
			b = DayTotal{Date: date}
		}
		b.RawSeconds += e.Seconds(*e.EndTime)
		b.SickDay = b.SickDay || e.IsSickDay
		b.Entries++
		buckets[key] = b
	}

	days := make([]DayTotal, 0, len(buckets))
	for _, b := range buckets {
		b.AdjustedSeconds = AdjustDay(b.RawSeconds, b.SickDay, b.Date.Weekday())
		days = append(days, b)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// Compute aggregates entries as seen at now. liveElapsed is the running
// length in seconds of the currently open entry (0 when no timer runs); it
// only reduces ToGoSeconds.
func Compute(entries []domain.TimeEntry, now time.Time, liveElapsed int64) Summary {
	days := DailyTotals(entries)

	today := Day(now)
	weekStart := WeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, 7)
	isoYear, isoWeek := today.ISOWeek()

	s := Summary{
		ISOYear:                isoYear,
		ISOWeek:                isoWeek,
		WeekStart:              weekStart,
		WeekEnd:                weekEnd,
		OvertimeBalanceSeconds: InitialOvertimeCarry,
	}

	weekly := make(map[string]int64)
	for _, d := range days {
		s.TotalSeconds += d.AdjustedSeconds
		if !d.Date.Before(weekStart) && d.Date.Before(weekEnd) {
			s.KWSeconds += d.AdjustedSeconds
		}
		weekly[WeekStart(d.Date).Format(dateLayout)] += d.AdjustedSeconds
	}

	if len(days) > 0 {
		first := days[0].Date
		last := days[len(days)-1].Date
		if last.After(today) {
			last = today
		}
		s.AvgPerDaySeconds = s.TotalSeconds / int64(max(countWeekdays(first, last), 1))

		for w := WeekStart(first); w.Before(weekStart); w = w.AddDate(0, 0, 7) {
			s.OvertimeBalanceSeconds += weekly[w.Format(dateLayout)] - WeeklyTarget
		}
	}

	s.ToGoSeconds = max(WeeklyTarget-s.KWSeconds-max(liveElapsed, 0), 0)
	return s
}

// countWeekdays counts Monday–Friday dates in [from, to].
func countWeekdays(from, to time.Time) int {
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}
