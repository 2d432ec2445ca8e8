package ai

import (
	"strings"
	"time"

	"github.com/christopherklint97/stempel/internal/domain"
)

// Mail is one email to triage.
type Mail struct {
	ID         string
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// TodoDraft is the model's proposal for a mail. Every field is required so
// the generated schema is accepted by strict structured-output modes.
type TodoDraft struct {
	Actionable  bool   `json:"actionable" jsonschema:"description=false when the mail needs no action from me"`
	Title       string `json:"title" jsonschema:"description=Short imperative task title"`
	Description string `json:"description" jsonschema:"description=One or two sentences of context from the mail"`
	Priority    string `json:"priority" jsonschema:"enum=high,enum=medium,enum=low"`
	Project     string `json:"project" jsonschema:"enum=merchandising,enum=salescrew,enum=inkognito,enum=other"`
	Prompt      string `json:"prompt" jsonschema:"description=Instructions an assistant could follow to complete the task"`
}

// Todo converts the draft into a todo carrying the mail as its source.
// Unknown priorities or projects fall back to the defaults.
func (d TodoDraft) Todo(m Mail) domain.Todo {
	t := domain.Todo{
		Title:              strings.TrimSpace(d.Title),
		Description:        strings.TrimSpace(d.Description),
		SourceEmailFrom:    m.From,
		SourceEmailSubject: m.Subject,
		Priority:           domain.TodoPriority(strings.ToLower(d.Priority)),
		Project:            strings.ToLower(d.Project),
		Prompt:             strings.TrimSpace(d.Prompt),
		Status:             domain.TodoOpen,
	}
	if !t.Priority.Valid() {
		t.Priority = domain.PriorityMedium
	}
	if t.Project != domain.TodoProjectOther && !domain.Company(t.Project).Valid() {
		t.Project = domain.TodoProjectOther
	}
	return t
}
