package domain

import (
	"strings"
	"time"
)

type TodoStatus string

const (
	TodoOpen TodoStatus = "open"
	TodoDone TodoStatus = "done"
)

func (s TodoStatus) Valid() bool {
	return s == TodoOpen || s == TodoDone
}

type TodoPriority string

const (
	PriorityHigh   TodoPriority = "high"
	PriorityMedium TodoPriority = "medium"
	PriorityLow    TodoPriority = "low"
)

func (p TodoPriority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// TodoProjectOther tags todos that belong to no company.
const TodoProjectOther = "other"

type Todo struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	SourceEmailFrom    string       `json:"source_email_from,omitempty"`
	SourceEmailSubject string       `json:"source_email_subject,omitempty"`
	Priority           TodoPriority `json:"priority"`
	Project            string       `json:"project"`
	Prompt             string       `json:"prompt,omitempty"`
	Status             TodoStatus   `json:"status"`
	DoneAt             *time.Time   `json:"done_at"`
	CreatedAt          time.Time    `json:"created_at"`
}

// TodoPatch holds the mutable todo fields; nil fields are left unchanged.
type TodoPatch struct {
	Status *TodoStatus `json:"status,omitempty"`
	DoneAt *time.Time  `json:"done_at,omitempty"`
	Prompt *string     `json:"prompt,omitempty"`
}

// Normalize fills defaults and rejects todos that cannot be stored.
func (t *Todo) Normalize() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return invalidf("title is required")
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return invalidf("invalid priority %q", t.Priority)
	}
	if t.Project == "" {
		t.Project = TodoProjectOther
	}
	if t.Project != TodoProjectOther && !Company(t.Project).Valid() {
		return invalidf("invalid todo project %q", t.Project)
	}
	if t.Status == "" {
		t.Status = TodoOpen
	}
	if !t.Status.Valid() {
		return invalidf("invalid status %q", t.Status)
	}
	return nil
}

// Apply returns a copy of t with the patch applied. Marking a todo done
// stamps DoneAt (the patch value or now); reopening clears it.
func (p TodoPatch) Apply(t Todo, now time.Time) Todo {
	if p.Prompt != nil {
		t.Prompt = *p.Prompt
	}
	if p.Status == nil {
		return t
	}
	t.Status = *p.Status
	switch t.Status {
	case TodoDone:
		doneAt := now
		if p.DoneAt != nil {
			doneAt = *p.DoneAt
		}
		t.DoneAt = &doneAt
	case TodoOpen:
		t.DoneAt = nil
	}
	return t
}
