package domain

import "time"

// TimeEntry is one stretch of tracked time. EndTime is nil while the timer runs.
type TimeEntry struct {
	ID           string     `json:"id"`
	Company      Company    `json:"company"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	SessionID    string     `json:"session_id"`
	ProjectID    string     `json:"project_id,omitempty"`
	IsSickDay    bool       `json:"is_sick_day"`
	IsHomeOffice bool       `json:"is_home_office"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TimeEntryPatch holds the mutable entry fields; nil fields are left unchanged.
type TimeEntryPatch struct {
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	ProjectID    *string    `json:"project_id,omitempty"`
	IsHomeOffice *bool      `json:"is_home_office,omitempty"`
}

var ErrEndBeforeStart error = ValidationError("end time is before start time")

// Completed reports whether the entry has been stopped.
func (e TimeEntry) Completed() bool {
	return e.EndTime != nil
}

// Duration returns the tracked length, measuring open entries up to now.
// Negative spans are clamped to zero.
func (e TimeEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	d := end.Sub(e.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Seconds is Duration truncated to whole seconds.
func (e TimeEntry) Seconds(now time.Time) int64 {
	return int64(e.Duration(now) / time.Second)
}

func (e TimeEntry) Validate() error {
	if !e.Company.Valid() {
		return invalidf("invalid company %q", e.Company)
	}
	if e.StartTime.IsZero() {
		return invalidf("start time is required")
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return ErrEndBeforeStart
	}
	return nil
}

// Apply returns a copy of e with the patch applied.
func (p TimeEntryPatch) Apply(e TimeEntry) TimeEntry {
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		end := *p.EndTime
		e.EndTime = &end
	}
	if p.ProjectID != nil {
		e.ProjectID = *p.ProjectID
	}
	if p.IsHomeOffice != nil {
		e.IsHomeOffice = *p.IsHomeOffice
	}
	return e
}
