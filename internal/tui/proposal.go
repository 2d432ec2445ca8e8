package tui

import (
	"fmt"
	"strings"

	"github.com/christopherklint97/stempel/internal/ai"
)

type proposalModel struct {
	mail  ai.Mail
	draft *ai.TodoDraft
}

func (m proposalModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Proposed Todo"))
	sb.WriteString("\n")
	if m.mail.Subject != "" || m.mail.From != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%s — %s", m.mail.From, m.mail.Subject)))
		sb.WriteString("\n\n")
	}

	if !m.draft.Actionable {
		sb.WriteString(warningStyle.Render("Nothing actionable in this mail."))
		sb.WriteString("\n\n")
		sb.WriteString(helpStyle.Render("[a]dd anyway • [r]etry • [s]kip"))
		return boxStyle.Render(sb.String())
	}

	todo := m.draft.Todo(m.mail)
	rows := []struct{ label, value string }{
		{"Title", highlightStyle.Render(todo.Title)},
		{"Priority", priorityStyles[todo.Priority].Render(string(todo.Priority))},
		{"Project", todo.Project},
		{"Details", todo.Description},
	}
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		sb.WriteString(labelStyle.Render(r.label) + r.value + "\n")
	}
	if todo.Prompt != "" {
		sb.WriteString("\n" + dimStyle.Render(truncate(todo.Prompt, 300)) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("[a]ccept • [r]etry • [s]kip"))
	return boxStyle.Render(sb.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
